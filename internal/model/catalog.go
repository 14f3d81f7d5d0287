package model

// CatalogItem is one title's inventory record. Copy counts are only changed
// through the borrow, return and sell operations below.
type CatalogItem struct {
	ID              string  `json:"item_id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	TotalCopies     int     `json:"copies"`
	AvailableCopies int     `json:"available_copies"`
	ForSale         bool    `json:"for_sale"`
	Price           float64 `json:"price"`
}

// NewCatalogItem creates an item with every copy on the shelf. Price is only
// kept for items that are for sale.
func NewCatalogItem(id, title, author, isbn string, copies int, forSale bool, price float64) *CatalogItem {
	if copies < 0 {
		copies = 0
	}
	if !forSale || price < 0 {
		price = 0
	}
	return &CatalogItem{
		ID:              id,
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     copies,
		AvailableCopies: copies,
		ForSale:         forSale,
		Price:           price,
	}
}

// BorrowOneCopy takes one copy off the shelf.
func (i *CatalogItem) BorrowOneCopy() bool {
	if i.AvailableCopies <= 0 {
		return false
	}
	i.AvailableCopies--
	return true
}

// ReturnOneCopy puts a lent copy back. It refuses to go above TotalCopies.
func (i *CatalogItem) ReturnOneCopy() bool {
	if i.AvailableCopies >= i.TotalCopies {
		return false
	}
	i.AvailableCopies++
	return true
}

// SellOneCopy removes one copy from circulation for good.
func (i *CatalogItem) SellOneCopy() bool {
	if i.AvailableCopies <= 0 {
		return false
	}
	i.AvailableCopies--
	i.TotalCopies--
	return true
}

// IsAvailable reports whether at least one copy is on the shelf.
func (i *CatalogItem) IsAvailable() bool {
	return i.AvailableCopies > 0
}
