package agents

import (
	"path/filepath"
	"strings"

	"speakai-platform/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes bounds every file accepted by create and update.
const MaxUploadBytes = 25 << 20

// Sniffed content types accepted per extension. docx is a zip container and may
// sniff as plain zip when the archive directory is at the end of the file.
var documentTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

var voiceTypes = map[string][]string{
	".mp3":  {"audio/mpeg"},
	".wav":  {"audio/wav", "audio/x-wav"},
	".m4a":  {"audio/x-m4a", "audio/mp4", "video/mp4"},
	".ogg":  {"audio/ogg", "application/ogg"},
	".flac": {"audio/flac", "audio/x-flac"},
	".aac":  {"audio/aac", "audio/x-hx-aac-adts"},
}

// ValidateDocument checks a knowledge-base upload before any upstream call.
func ValidateDocument(u *Upload) error {
	return validateUpload(u, "document", documentTypes, "application/")
}

// ValidateVoice checks a voice sample before any upstream call.
func ValidateVoice(u *Upload) error {
	return validateUpload(u, "voice file", voiceTypes, "audio/")
}

func validateUpload(u *Upload, kind string, allowed map[string][]string, declaredPrefix string) error {
	if u == nil {
		return nil
	}
	name := filepath.Base(strings.TrimSpace(u.Filename))
	if name == "" || name == "." || name == "/" {
		return apperr.Validation("%s filename is required", kind)
	}
	u.Filename = name

	ext := strings.ToLower(filepath.Ext(name))
	types, ok := allowed[ext]
	if !ok {
		return apperr.Validation("unsupported %s type %q, allowed: %s", kind, ext, allowedList(allowed))
	}
	if len(u.Data) == 0 {
		return apperr.Validation("%s %q is empty", kind, name)
	}
	if len(u.Data) > MaxUploadBytes {
		return apperr.Validation("%s %q exceeds %d bytes", kind, name, MaxUploadBytes)
	}

	declared := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" && !strings.HasPrefix(declared, declaredPrefix) {
		return apperr.Validation("%s %q has content type %q", kind, name, u.ContentType)
	}

	detected := mimetype.Detect(u.Data)
	if !matchesAny(detected, types) {
		return apperr.Validation("%s %q content is %s, expected %s", kind, name, detected.String(), ext)
	}
	if declared == "" || declared == "application/octet-stream" {
		u.ContentType = types[0]
	}
	return nil
}

func matchesAny(m *mimetype.MIME, types []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, t := range types {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

func allowedList(allowed map[string][]string) string {
	exts := make([]string, 0, len(allowed))
	for _, ext := range []string{".pdf", ".docx", ".mp3", ".wav", ".m4a", ".ogg", ".flac", ".aac"} {
		if _, ok := allowed[ext]; ok {
			exts = append(exts, strings.TrimPrefix(ext, "."))
		}
	}
	return strings.Join(exts, ", ")
}
