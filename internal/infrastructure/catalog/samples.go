package catalog

import "github.com/oksasatya/cosmebag/internal/domain/entity"

// Samples is the built-in list shown when the lookup service is unreachable.
func Samples() []entity.CatalogProduct {
	return []entity.CatalogProduct{
		{Barcode: "3337875597197", Name: "Effaclar Duo+", Brand: "La Roche-Posay", Category: "skincare"},
		{Barcode: "3337875545839", Name: "Toleriane Sensitive", Brand: "La Roche-Posay", Category: "skincare"},
		{Barcode: "3606000537491", Name: "Hydrating Cleanser", Brand: "CeraVe", Category: "skincare"},
		{Barcode: "3600523614486", Name: "Lash Paradise Mascara", Brand: "L'Oréal Paris", Category: "makeup"},
		{Barcode: "3614272049536", Name: "Rouge Pur Couture", Brand: "Yves Saint Laurent", Category: "makeup"},
		{Barcode: "3282770037364", Name: "Hyaluron Serum", Brand: "Vichy", Category: "skincare"},
		{Barcode: "4005900136268", Name: "Nivea Creme", Brand: "Nivea", Category: "bodycare"},
		{Barcode: "3600541358669", Name: "Elseve Total Repair 5", Brand: "L'Oréal Paris", Category: "haircare"},
		{Barcode: "3274872368125", Name: "Bleu de Chanel", Brand: "Chanel", Category: "fragrance"},
		{Barcode: "3433422406582", Name: "Anthelios UVMune 400", Brand: "La Roche-Posay", Category: "suncare"},
	}
}

// SamplesByCategory filters Samples, returning all of them when nothing matches.
func SamplesByCategory(category string) []entity.CatalogProduct {
	all := Samples()
	out := make([]entity.CatalogProduct, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}
