package cart

// LineItem is one cart entry as served by /cart.js. Key is unique per
// product, variant and line properties.
type LineItem struct {
	Key               string            `json:"key"`
	ID                int64             `json:"id"`
	VariantID         int64             `json:"variant_id"`
	ProductID         int64             `json:"product_id"`
	Quantity          int               `json:"quantity"`
	Price             int               `json:"price"`
	OriginalPrice     int               `json:"original_price"`
	FinalLinePrice    int               `json:"final_line_price"`
	OriginalLinePrice int               `json:"original_line_price"`
	ProductTitle      string            `json:"product_title"`
	VariantTitle      string            `json:"variant_title"`
	Handle            string            `json:"handle"`
	URL               string            `json:"url"`
	Image             string            `json:"image"`
	Properties        map[string]string `json:"properties,omitempty"`
}

// Cart is owned by the commerce backend; the theme never changes one
// locally.
type Cart struct {
	Token              string     `json:"token"`
	ItemCount          int        `json:"item_count"`
	TotalPrice         int        `json:"total_price"`
	OriginalTotalPrice int        `json:"original_total_price"`
	Currency           string     `json:"currency,omitempty"`
	Items              []LineItem `json:"items"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || c.ItemCount == 0
}

// Savings is the sum of original minus final line prices over the lines
// that are discounted.
func (c *Cart) Savings() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		if item.OriginalLinePrice > item.FinalLinePrice {
			total += item.OriginalLinePrice - item.FinalLinePrice
		}
	}
	return total
}

// Keys lists the line keys in cart order.
func (c *Cart) Keys() []string {
	if c == nil {
		return []string{}
	}
	keys := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		keys = append(keys, item.Key)
	}
	return keys
}

func (c *Cart) Item(key string) (LineItem, bool) {
	if c == nil {
		return LineItem{}, false
	}
	for _, item := range c.Items {
		if item.Key == key {
			return item, true
		}
	}
	return LineItem{}, false
}

// recalculate derives the aggregates from the lines.
func (c *Cart) recalculate() {
	c.ItemCount = 0
	c.TotalPrice = 0
	c.OriginalTotalPrice = 0
	for i := range c.Items {
		item := &c.Items[i]
		item.FinalLinePrice = item.Price * item.Quantity
		original := item.OriginalPrice
		if original < item.Price {
			original = item.Price
		}
		item.OriginalLinePrice = original * item.Quantity
		c.ItemCount += item.Quantity
		c.TotalPrice += item.FinalLinePrice
		c.OriginalTotalPrice += item.OriginalLinePrice
	}
}
