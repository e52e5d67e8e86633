package submission

import "fmt"

// codePrefix precedes every submission code.
const codePrefix = "R"

// GenerateCode derives the human-readable code from the submission id:
// "R" plus the id zero-padded to six digits (42 -> "R000042"). Ids beyond
// six digits widen the code instead of truncating, so uniqueness stays
// tied to the id sequence.
func GenerateCode(id int64) string {
	return fmt.Sprintf("%s%06d", codePrefix, id)
}
