package memory

import (
	"almacen-service/internal/models"
	"almacen-service/internal/store"

	"github.com/shopspring/decimal"
)

// NewSeeded returns a store pre-loaded with a demo catalog and credit
// clients for dev mode. IDs are fixed so demo flows are reproducible.
func NewSeeded() *Store {
	s := NewStore()
	now := store.Now()

	for _, p := range []struct {
		id, name, category, unit string
		cost, sell, stock, min   int64
	}{
		{"p1", "Coca-Cola 1.5L", "Bebidas", models.UnitPiece, 1200, 1800, 24, 6},
		{"p2", "Leche La Serenísima 1L", "Lácteos", models.UnitPiece, 850, 1200, 12, 5},
		{"p3", "Fideos Matarazzo 500g", "Almacén", models.UnitPiece, 600, 950, 30, 8},
		{"p4", "Lavandina Ayudín 1L", "Limpieza", models.UnitPiece, 400, 700, 8, 4},
		{"p5", "Alfajor Havanna", "Golosinas", models.UnitPiece, 500, 900, 3, 5},
		{"p6", "Jamón cocido", "Fiambrería", models.UnitKilo, 4500, 7200, 5, 2},
		{"p7", "Agua mineral 1.5L", "Bebidas", models.UnitPiece, 500, 800, 18, 6},
		{"p8", "Yogur Yogurísimo 1L", "Lácteos", models.UnitPiece, 900, 1400, 6, 4},
		{"p9", "Arroz Gallo 1kg", "Almacén", models.UnitPiece, 800, 1300, 15, 5},
		{"p10", "Detergente Magistral 500ml", "Limpieza", models.UnitPiece, 600, 1000, 10, 3},
		{"p11", "Caramelos Sugus x10", "Golosinas", models.UnitPiece, 200, 400, 50, 10},
		{"p12", "Queso cremoso", "Fiambrería", models.UnitKilo, 3800, 6000, 3, 2},
		{"p13", "Cerveza Quilmes 1L", "Bebidas", models.UnitPiece, 1000, 1600, 20, 6},
		{"p14", "Manteca La Serenísima 200g", "Lácteos", models.UnitPiece, 700, 1100, 8, 3},
		{"p15", "Aceite Cocinero 900ml", "Almacén", models.UnitPiece, 1200, 1900, 12, 4},
		{"p16", "Jabón en polvo Skip 800g", "Limpieza", models.UnitPiece, 1500, 2400, 4, 5},
		{"p17", "Chocolate Milka 150g", "Golosinas", models.UnitPiece, 800, 1300, 7, 3},
		{"p18", "Salame", "Fiambrería", models.UnitKilo, 3500, 5800, 4, 2},
		{"p19", "Fernet Branca 750ml", "Bebidas", models.UnitPiece, 3000, 4800, 6, 3},
		{"p20", "Pan lactal Bimbo", "Panadería", models.UnitPiece, 900, 1400, 10, 4},
	} {
		s.products = append(s.products, models.Product{
			ID:        p.id,
			Name:      p.name,
			Category:  p.category,
			Unit:      p.unit,
			CostPrice: decimal.NewFromInt(p.cost),
			SellPrice: decimal.NewFromInt(p.sell),
			Stock:     decimal.NewFromInt(p.stock),
			MinStock:  decimal.NewFromInt(p.min),
			CreatedAt: now,
		})
	}

	for _, c := range []struct {
		id, name, phone string
		debt            int64
	}{
		{"c1", "María González", "11-2345-6789", 12500},
		{"c2", "Roberto Sánchez", "11-3456-7890", 8300},
		{"c3", "Ana López", "11-4567-8901", 3200},
		{"c4", "Carlos Ruiz", "11-5678-9012", 1800},
	} {
		s.clients = append(s.clients, models.Client{
			ID:        c.id,
			Name:      c.name,
			Phone:     c.phone,
			Debt:      decimal.NewFromInt(c.debt),
			CreatedAt: now,
		})
	}

	return s
}
