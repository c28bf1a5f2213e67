package service

import "strings"

// Production attributes the vendor requires per product family, derived from
// the SKU prefix. The prefixes mirror the vendor's global catalog naming:
// FAP = fine art print, CFP = classic framed print, CAN = stretched canvas.
var skuAttributePrefixes = []struct {
	prefix     string
	attributes map[string]string
}{
	{"GLOBAL-CFP", map[string]string{"color": "black", "glaze": "acrylic"}},
	{"GLOBAL-CAN", map[string]string{"wrap": "ImageWrap"}},
	{"GLOBAL-FAP", map[string]string{"finish": "matte"}},
}

func vendorAttributesForSKU(sku string) map[string]string {
	for _, entry := range skuAttributePrefixes {
		if strings.HasPrefix(sku, entry.prefix) {
			return entry.attributes
		}
	}
	return nil
}
