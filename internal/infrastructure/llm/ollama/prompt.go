package ollama

import "fmt"

// buildParsePrompt asks the generation model for a machine-readable list of
// line items. The instruction text is fixed; only the query varies, which
// keeps parsing reproducible across calls for the same input.
func buildParsePrompt(query string) string {
	return fmt.Sprintf(`Ты — эксперт по разбору заявок на закупку комплектующих.

Разбери запрос пользователя на отдельные позиции.

Правила:
1. Выдели каждый отдельный товар с его количеством.
2. Если количество не указано, ставь 1.
3. Сохраняй технические характеристики (размеры, резьбу, материал) в поле specification.
4. Для крепежа используй стандартные обозначения (М6, М8, М10).

Ответ — строго JSON без пояснений, по схеме:
{"items": [{"name": "название товара", "quantity": 1, "specification": "характеристики"}]}

Пример.
Запрос: "Комплект для монтажа короба 200x200: короб, крышка, 4 винта М6"
Ответ: {"items": [{"name": "Короб 200x200", "quantity": 1, "specification": "200x200"}, {"name": "Крышка 200", "quantity": 1, "specification": "200"}, {"name": "Винт М6", "quantity": 4, "specification": "М6"}]}

Запрос: %q
Ответ:`, query)
}
