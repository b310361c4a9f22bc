package validators

// fieldMessages overrides the generic messages for product form fields,
// keyed by "<json field>.<tag>".
var fieldMessages = map[string]string{
	"name.required":        "Product name is required",
	"name.min":             "Product name is required",
	"brand.required":       "Brand is required",
	"brand.min":            "Brand is required",
	"category.required":    "Category is required",
	"category.min":         "Category is required",
	"subCategory.required": "Sub Category is required",
	"subCategory.min":      "Sub Category is required",
	"description.required": "Description is required",
	"description.min":      "Description is required",
	"imageUrl.required":    "Image URL is required",
	"imageUrl.http_url":    "Image URL must be a valid URL",
	"price.required":       "Price is required",
	"price.min":            "Price must be greater than or equal to 0",
	"stock.required":       "Stock is required",
	"stock.min":            "Stock must be a non-negative integer",
	"rating.required":      "Rating is required",
	"rating.min":           "Rating must be greater than or equal to 0",
	"reviews.required":     "Reviews is required",
	"reviews.min":          "Reviews must be greater than or equal to 0",
	"key.required":         "Specification key is required",
	"value.required":       "Specification value is required",
}
