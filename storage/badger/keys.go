package badger

import "fmt"

// Key prefixes for stored data. Vector records nest the subject between the
// prefix and the unit ID so a subject-scoped query is a single prefix scan.
const (
	vectorRecordPrefix = "vecrec"
)

// makeVectorKey generates the key for a vector record.
// Format: vecrec:{subjectID}:{unitID}
func makeVectorKey(subjectID, unitID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorRecordPrefix, subjectID, unitID))
}

// makeSubjectPrefix generates the scan prefix for one subject's records,
// or for the whole collection when subjectID is empty.
func makeSubjectPrefix(subjectID string) []byte {
	if subjectID == "" {
		return []byte(vectorRecordPrefix + ":")
	}
	return []byte(fmt.Sprintf("%s:%s:", vectorRecordPrefix, subjectID))
}
