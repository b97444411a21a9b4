package clinkconfig

import (
	"encoding/json"
	"os"

	jsonc "github.com/muhammadmuzzammil1998/jsonc"

	"github.com/smattr/clink/internal/clinkerr"
)

// decodeJSONC reads a JSONC file (comments and trailing commas permitted)
// at path, strips those extensions, and unmarshals the remaining JSON into
// dest.
func decodeJSONC(path string, dest any) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	clean := jsonc.ToJSON(raw)
	if err := json.Unmarshal(clean, dest); err != nil {
		return nil, clinkerr.Errorf(clinkerr.InvalidArgument, "parse %s: %w", path, err)
	}
	return clean, nil
}
