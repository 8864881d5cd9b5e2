// Package schema valida a saída (não confiável) do modelo contra o formato
// fixo do relatório de auditoria.
package schema

// auditOutputSchema é o contrato da resposta do modelo:
//
//	{"violations": [{"id": string, "severity": "low"|"med"|"high"}],
//	 "patch": string|null, "confidence": number}
const auditOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["violations", "confidence"],
  "properties": {
    "violations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "severity"],
        "properties": {
          "id": {"type": "string"},
          "severity": {"type": "string", "enum": ["low", "med", "high"]}
        }
      }
    },
    "patch": {"type": ["string", "null"]},
    "confidence": {"type": "number"}
  }
}`

const auditOutputURL = "configaudit://audit-output.json"
