package contahub

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Enrich stamps every record with its owning establishment and a unique
// idempotency key. The key hashes the record content together with a
// timestamp and a random salt, so two captures of the same row still get
// distinct keys and natural-key uniqueness stays with the store.
func Enrich(records []Record, rt ReportType, barID int) []Record {
	now := time.Now().UnixMilli()
	for _, record := range records {
		content, _ := json.Marshal(record)
		seed := fmt.Sprintf("%s_%d_%s_%d_%s", rt, barID, content, now, uuid.NewString())
		sum := md5.Sum([]byte(seed))

		record["bar_id"] = barID
		record["idempotency_key"] = hex.EncodeToString(sum[:])
	}
	return records
}
