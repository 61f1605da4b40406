package impl

import (
	"github.com/aarondl/null/v8"
)

// nullJSON 空 JSON 写入 NULL
func nullJSON(raw []byte) null.Bytes {
	if len(raw) == 0 {
		return null.Bytes{}
	}
	return null.BytesFrom(raw)
}
