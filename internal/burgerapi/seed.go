package burgerapi

import "github.com/vasiliy-maslov/stellar-burgers/internal/model"

// DefaultIngredients is the catalog the reference backend starts with. The
// ids and nutrition match the production dataset so recorded fixtures stay
// interchangeable.
func DefaultIngredients() []model.Ingredient {
	return []model.Ingredient{
		{
			ID: "643d69a5c3f7b9001cfa093c", Name: "Краторная булка N-200i", Type: model.TypeBun,
			Proteins: 80, Fat: 24, Carbohydrates: 53, Calories: 420, Price: 1255,
			Image:       "https://code.s3.yandex.net/react/code/bun-02.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/bun-02-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/bun-02-mobile.png",
		},
		{
			ID: "643d69a5c3f7b9001cfa093d", Name: "Флюоресцентная булка R2-D3", Type: model.TypeBun,
			Proteins: 44, Fat: 26, Carbohydrates: 85, Calories: 643, Price: 988,
			Image:       "https://code.s3.yandex.net/react/code/bun-01.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/bun-01-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/bun-01-mobile.png",
		},
		{
			ID: "643d69a5c3f7b9001cfa0941", Name: "Биокотлета из марсианской Магнолии", Type: model.TypeMain,
			Proteins: 420, Fat: 142, Carbohydrates: 242, Calories: 4242, Price: 424,
			Image:       "https://code.s3.yandex.net/react/code/meat-01.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/meat-01-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/meat-01-mobile.png",
		},
		{
			ID: "643d69a5c3f7b9001cfa093e", Name: "Филе Люминесцентного тетраодонтимформа", Type: model.TypeMain,
			Proteins: 44, Fat: 26, Carbohydrates: 85, Calories: 643, Price: 988,
			Image:       "https://code.s3.yandex.net/react/code/meat-03.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/meat-03-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/meat-03-mobile.png",
		},
		{
			ID: "643d69a5c3f7b9001cfa0942", Name: "Соус Spicy-X", Type: model.TypeSauce,
			Proteins: 30, Fat: 20, Carbohydrates: 40, Calories: 30, Price: 90,
			Image:       "https://code.s3.yandex.net/react/code/sauce-02.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/sauce-02-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/sauce-02-mobile.png",
		},
		{
			ID: "643d69a5c3f7b9001cfa0943", Name: "Соус фирменный Space Sauce", Type: model.TypeSauce,
			Proteins: 50, Fat: 22, Carbohydrates: 11, Calories: 14, Price: 80,
			Image:       "https://code.s3.yandex.net/react/code/sauce-04.png",
			ImageLarge:  "https://code.s3.yandex.net/react/code/sauce-04-large.png",
			ImageMobile: "https://code.s3.yandex.net/react/code/sauce-04-mobile.png",
		},
	}
}
