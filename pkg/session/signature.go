package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
)

// TemplateVersion is bumped whenever the HTML/PDF template changes in a
// way that should invalidate cached renders even if cv_data is unchanged.
const TemplateVersion = "v1"

// ContentSignature computes sha256(cv_data || template_version || language)
//. It is deterministic: the same document, template version and
// language always yield the same signature, which is what lets the PDF
// generation path cache-hit on an unchanged document.
func ContentSignature(d *cv.Data, language cv.Language) string {
	canon, _ := json.Marshal(d)
	h := sha256.New()
	h.Write(canon)
	h.Write([]byte(TemplateVersion))
	h.Write([]byte(language))
	return hex.EncodeToString(h.Sum(nil))
}

// Sum256Hex returns the hex sha256 digest of arbitrary text, used to key
// job-posting extraction and translation caches by their source text.
func Sum256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
