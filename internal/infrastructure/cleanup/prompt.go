package cleanup

import "fmt"

const systemPrompt = `You are an expert at cleaning and formatting ingredient lists from product labels. Your task is to:

1. Extract only the ingredients section from the text
2. Remove ALL percentage values (like "5%", "10.5%")
3. Remove ALL garbage characters, symbols, and non-ingredient text
4. Clean up OCR errors and correct misspelled ingredient names
5. Correct compound words like 'riceflour' to 'rice flour' with proper spacing
6. Format each ingredient on a separate line
7. Remove extra spaces and normalize spacing within each ingredient name
8. Only keep valid ingredient names - remove any non-food items, codes, or irrelevant text

Return ONLY the cleaned ingredient list with each ingredient on its own line. Do not include any explanations, headers, or additional text.`

func userPrompt(raw string) string {
	return fmt.Sprintf("Clean this product label text and extract only the valid ingredients (one per line, no percentages, no garbage): %s", raw)
}
