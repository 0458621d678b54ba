package model

import "fmt"

// Diff summarises what changed between two versions of a recipe, one line
// per change, in title/servings/ingredients/instructions order.
func Diff(original, modified *Recipe) []string {
	var changes []string

	if original.Title != modified.Title {
		changes = append(changes, fmt.Sprintf("Title changed from %q to %q", original.Title, modified.Title))
	}
	if original.Servings != modified.Servings {
		changes = append(changes, fmt.Sprintf("Servings changed from %d to %d", original.Servings, modified.Servings))
	}

	before := make(map[string]struct{}, len(original.Ingredients))
	for _, ing := range original.Ingredients {
		before[ingredientKey(ing)] = struct{}{}
	}
	for _, ing := range modified.Ingredients {
		key := ingredientKey(ing)
		if _, ok := before[key]; !ok {
			changes = append(changes, "Added or modified ingredient: "+key)
		}
	}

	for i, step := range modified.Instructions {
		if i >= len(original.Instructions) || step != original.Instructions[i] {
			changes = append(changes, fmt.Sprintf("Modified instruction %d", i+1))
		}
	}

	return changes
}

func ingredientKey(ing Ingredient) string {
	return fmt.Sprintf("%g %s %s", ing.Amount, ing.Unit, ing.Name)
}
