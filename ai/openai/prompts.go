package openai

const summaryPrompt = `Summarize the given text in 1-3 sentences. Capture the main point and any
concrete facts (names, dates, numbers) the reader would want back when
searching for this later. Output only the summary, with no preamble,
explanation, or quotation marks.`

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "kind": {
      "type": "string",
      "enum": ["text", "link", "file"]
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["kind", "confidence"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `Classify the given text into exactly one content kind and return the result
as JSON.

Kinds:
- "text": a note, thought, todo, or any free-standing prose written by the user
- "link": text that is primarily about a web page, article, or URL
- "file": text that describes or accompanies an uploaded file or image

Output ONLY valid JSON which complies with the schema given below. Do not
include any preamble, explanation, greeting, or acknowledgment. Start your
response directly with the opening brace { and end with the closing brace }.
Your output must exactly follow this schema:

%s`

const visionPrompt = `Describe this image in 2-4 sentences. Mention any visible text, the main
subjects, and the setting. Output only the description.`
