package entities

// PricePoint è una riga dello storico prezzi (EGP per tonnellata).
type PricePoint struct {
	Crop        string  `db:"crop" json:"crop"`
	PricePerTon float64 `db:"price_per_ton" json:"price_per_ton"`
	Date        string  `db:"date" json:"date"` // YYYY-MM-DD
}
