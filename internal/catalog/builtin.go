package catalog

import "salgados/internal/models"

// Prices of non-portioned items are per hundred units.
var builtins = []models.CatalogItem{
	{ID: 1, Name: "Coxinha de Frango", Price: 90, Category: models.CategorySalgados, Description: "Frango desfiado temperado"},
	{ID: 2, Name: "Coxinha de Frango com Catupiry", Price: 100, Category: models.CategorySalgados},
	{ID: 3, Name: "Bolinha de Queijo", Price: 85, Category: models.CategorySalgados},
	{ID: 4, Name: "Risole de Carne", Price: 90, Category: models.CategorySalgados},
	{ID: 5, Name: "Risole de Presunto e Queijo", Price: 90, Category: models.CategorySalgados},
	{ID: 6, Name: "Quibe", Price: 90, Category: models.CategorySalgados},
	{ID: 7, Name: "Croquete de Carne", Price: 90, Category: models.CategorySalgados},
	{ID: 8, Name: "Enroladinho de Salsicha", Price: 80, Category: models.CategorySalgados},
	{ID: 9, Name: "Sortido Tradicional", Price: 90, Category: models.CategorySortidos, Description: "Coxinha, bolinha de queijo, risole e quibe"},
	{ID: 10, Name: "Sortido Especial", Price: 105, Category: models.CategorySortidos, Description: "Inclui coxinha com catupiry e camarão"},
	{ID: 11, Name: "Sortido Mini", Price: 75, Category: models.CategorySortidos},
	{ID: 12, Name: "Esfiha de Carne", Price: 110, Category: models.CategoryAssados},
	{ID: 13, Name: "Esfiha de Frango", Price: 110, Category: models.CategoryAssados},
	{ID: 14, Name: "Empada de Palmito", Price: 130, Category: models.CategoryAssados},
	{ID: 15, Name: "Empada de Frango", Price: 120, Category: models.CategoryAssados},
	{ID: 16, Name: "Pão de Queijo", Price: 70, Category: models.CategoryAssados},
	{ID: 17, Name: "Folhado de Presunto e Queijo", Price: 120, Category: models.CategoryAssados},
	{ID: 18, Name: "Coxinha de Camarão", Price: 150, Category: models.CategoryEspeciais},
	{ID: 19, Name: "Bolinho de Bacalhau", Price: 160, Category: models.CategoryEspeciais},
	{ID: 20, Name: "Pastel de Carne Seca", Price: 140, Category: models.CategoryEspeciais},
	{ID: 21, Name: "Kibe Recheado com Coalhada", Price: 130, Category: models.CategoryEspeciais},
	{ID: 22, Name: "Mini Pizza", Price: 120, Category: models.CategoryEspeciais},
	{ID: 23, Name: "Molho de Pimenta", Price: 8, Category: models.CategoryOpcionais, Description: "Pote 150 ml", IsPortioned: true},
	{ID: 24, Name: "Maionese Temperada", Price: 10, Category: models.CategoryOpcionais, Description: "Pote 200 ml", IsPortioned: true},
	{ID: 25, Name: "Refrigerante 2L", Price: 14, Category: models.CategoryOpcionais, IsPortioned: true},
	{ID: 26, Name: "Porção de Batata Frita", Price: 25, Category: models.CategoryOpcionais, Description: "500 g", IsPortioned: true},
}
