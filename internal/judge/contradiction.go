// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"context"
	"encoding/json"
	"fmt"
)

const contradictionInstruction = "Decide if the two snippets are contradictory. " +
	`Reply with a JSON object {"conflict": true} or {"conflict": false}.`

var contradictionSchema = MustSchema("conflict", `{
  "type": "object",
  "properties": {
    "conflict": {"type": "boolean"}
  },
  "required": ["conflict"],
  "additionalProperties": false
}`)

// ContradictionJudge asks a Completer whether two evidence sentences
// contradict each other.
type ContradictionJudge struct {
	Completer Completer
}

// Contradicts returns the judge's verdict for the pair.
func (j *ContradictionJudge) Contradicts(ctx context.Context, a, b string) (bool, error) {
	user := fmt.Sprintf("Snippet A: %s\nSnippet B: %s", a, b)
	raw, err := j.Completer.CompleteJSON(ctx, contradictionInstruction, user, contradictionSchema)
	if err != nil {
		return false, err
	}
	var verdict struct {
		Conflict bool `json:"conflict"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return false, fmt.Errorf("parsing contradiction verdict: %w", err)
	}
	return verdict.Conflict, nil
}
