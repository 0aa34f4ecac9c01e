package domain

// Cart domain errors.
var (
	ErrEmptyCart       = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartLine is one entry in a customer's cart. A line's identity is the tuple
// (ProductID, ScentID, AudioURL, TextMessage): two additions with the same
// identity merge into one line with summed quantity, while any differing
// field produces a distinct line. UnitPrice is the snapshot taken when the
// line was added; it is carried through staging to the order item and never
// re-read from the live catalog.
type CartLine struct {
	ProductID   string  `json:"productId" validate:"required"`
	ScentID     string  `json:"scentId" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"required,gt=0"`
	ImageURL    string  `json:"imageUrl"`
	AudioURL    string  `json:"audioUrl,omitempty"`
	TextMessage string  `json:"textMessage,omitempty"`
}

// sameLine reports whether two lines share an identity.
func (l CartLine) sameLine(other CartLine) bool {
	return l.ProductID == other.ProductID &&
		l.ScentID == other.ScentID &&
		l.AudioURL == other.AudioURL &&
		l.TextMessage == other.TextMessage
}

// Cart is the customer's cart, held client-side and submitted with checkout
// requests. It is a plain value with explicit load/save at the edges, not
// ambient shared state.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// AddLine merges line into the cart: an existing line with the same identity
// absorbs the quantity, otherwise the line is appended.
func (c *Cart) AddLine(line CartLine) {
	for i := range c.Lines {
		if c.Lines[i].sameLine(line) {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// RemoveLine removes the line matching the identity of line, if present.
func (c *Cart) RemoveLine(line CartLine) {
	for i := range c.Lines {
		if c.Lines[i].sameLine(line) {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal returns the sum of line subtotals in dollars.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// Validate checks cart-level invariants before checkout.
func (c *Cart) Validate() error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	for _, l := range c.Lines {
		if l.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
