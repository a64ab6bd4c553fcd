package extraction

// extractionPrompt is the fixed template sent to the model with every
// receipt photograph. All monetary and date values are requested as strings:
// the model's numeric formatting is unreliable and string form keeps
// structural decoding separate from numeric interpretation.
const extractionPrompt = `You are analyzing a photograph of a purchase receipt. Carefully read all text in the image and extract the following information:

1. **Store Name**: The merchant or business name, usually the largest text at the top of the receipt.

2. **Date**: The transaction date and time. Return it exactly as one of: ISO 8601 with time ("2024-03-21T14:30:00Z"), "YYYY-MM-DD HH:mm", "MM/DD/YYYY HH:mm" or "DD/MM/YYYY HH:mm". If the receipt shows no time, use 00:00.

3. **Total**: The final total or grand total, as a string (e.g. "85.99" or "1,234.50").

4. **Items**: Every line item with its price, in the order printed.

5. **Currency**: The currency symbol shown on the receipt. If no symbol is visible, infer it from the receipt language: Japanese text means "¥", US English means "$", UK English means "£", other European languages mean "€".

Return ONLY valid JSON in this exact format:
{
  "storeName": "Store Name",
  "date": "YYYY-MM-DD HH:mm",
  "total": "0.00",
  "currency": "$",
  "items": [
    {"name": "Item name", "price": "0.00"}
  ]
}

Important:
- Every price, the total and the date must be strings, not numbers
- Keep items in the order they appear on the receipt
- If you cannot find storeName or currency, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
