package avatar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/text/message"

	"bookclub/internal/config"
	"bookclub/internal/domain"
	"bookclub/internal/platform/core"
	"bookclub/internal/platform/i18n"
)

const (
	// multipartMemory is the slack allowed on top of the file size limit
	// for multipart framing and form fields.
	multipartMemory = 1 << 20
	maxFieldSize    = 4 << 10
)

type Dependencies interface {
	GetSession(r *http.Request, name string) (*sessions.Session, error)
	ValidateCSRF(session *sessions.Session, token string) bool
	CurrentUser(r *http.Request) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	SetUserAvatar(ctx context.Context, userID int, filename string) error
	AuditAttempt(ctx context.Context, actorID int, action, target string, meta map[string]string)
	AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string)
}

type Handler struct {
	deps    Dependencies
	avatars *Manager
	printer *message.Printer
	maxBody int64
}

// NewHandler builds avatar endpoints over a manager. Request bodies are
// capped a little above the manager's size limit so oversize files still
// reach the size check and get its message.
func NewHandler(deps Dependencies, avatars *Manager, printer *message.Printer) Handler {
	if printer == nil {
		printer = i18n.Printer(i18n.BaseLocale)
	}
	return Handler{
		deps:    deps,
		avatars: avatars,
		printer: printer,
		maxBody: avatars.Config().MaxSize + multipartMemory,
	}
}

// Show redirects /avatar/<username>?size= to the resolved avatar URL.
func (h Handler) Show(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeMessage(w, http.StatusMethodNotAllowed, i18n.RequestMethodNotAllowed)
		return
	}
	username := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/avatar/"))
	target := h.avatars.Config().DefaultURL
	if username != "" {
		if user, err := h.deps.GetUserByUsername(r.Context(), username); err == nil {
			target = h.avatars.URL(user.Avatar, parseSize(r))
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.Redirect(w, r, target, http.StatusFound)
}

// Upload stores a new avatar for the current user and replaces the old one.
func (h Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeMessage(w, http.StatusMethodNotAllowed, i18n.RequestMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	upload, fields, cleanup := receive(r)
	defer cleanup()

	current, ok := h.authorize(w, r, csrfToken(r, fields))
	if !ok {
		return
	}
	target := strconv.Itoa(current.ID)
	h.deps.AuditAttempt(r.Context(), current.ID, "avatar.upload", target, nil)

	result := h.avatars.Upload(upload, current.ID)
	if !result.Success {
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.upload", target, errors.New(result.Kind.String()), nil)
		writeResult(w, statusFor(result.Kind), result)
		return
	}
	if err := h.deps.SetUserAvatar(r.Context(), current.ID, result.Filename); err != nil {
		h.avatars.Delete(result.Filename)
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.upload", target, err, nil)
		h.writeMessage(w, http.StatusInternalServerError, i18n.RequestSaveFailed)
		return
	}
	h.replaced(current.Avatar, result.Filename)
	h.deps.AuditOutcome(r.Context(), current.ID, "avatar.upload", target, nil, map[string]string{"filename": result.Filename})
	writeResult(w, http.StatusOK, result)
}

// Default replaces the current user's avatar with a generated initials image.
func (h Handler) Default(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeMessage(w, http.StatusMethodNotAllowed, i18n.RequestMethodNotAllowed)
		return
	}
	current, ok := h.authorize(w, r, csrfToken(r, nil))
	if !ok {
		return
	}
	target := strconv.Itoa(current.ID)
	h.deps.AuditAttempt(r.Context(), current.ID, "avatar.default", target, nil)

	result := h.avatars.GenerateDefault(current.Username, current.ID)
	if !result.Success {
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.default", target, errors.New(result.Kind.String()), nil)
		writeResult(w, http.StatusOK, result)
		return
	}
	if err := h.deps.SetUserAvatar(r.Context(), current.ID, result.Filename); err != nil {
		h.avatars.Delete(result.Filename)
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.default", target, err, nil)
		h.writeMessage(w, http.StatusInternalServerError, i18n.RequestSaveFailed)
		return
	}
	h.replaced(current.Avatar, result.Filename)
	h.deps.AuditOutcome(r.Context(), current.ID, "avatar.default", target, nil, map[string]string{"filename": result.Filename})
	writeResult(w, http.StatusOK, result)
}

// Delete removes the current user's avatar and clears the user record.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeMessage(w, http.StatusMethodNotAllowed, i18n.RequestMethodNotAllowed)
		return
	}
	current, ok := h.authorize(w, r, csrfToken(r, nil))
	if !ok {
		return
	}
	target := strconv.Itoa(current.ID)
	h.deps.AuditAttempt(r.Context(), current.ID, "avatar.delete", target, nil)

	if !h.avatars.Delete(current.Avatar) {
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.delete", target, errors.New("delete failed"), nil)
		h.writeMessage(w, http.StatusInternalServerError, i18n.AvatarDeleteFailed)
		return
	}
	if err := h.deps.SetUserAvatar(r.Context(), current.ID, ""); err != nil {
		h.deps.AuditOutcome(r.Context(), current.ID, "avatar.delete", target, err, nil)
		h.writeMessage(w, http.StatusInternalServerError, i18n.RequestSaveFailed)
		return
	}
	h.deps.AuditOutcome(r.Context(), current.ID, "avatar.delete", target, nil, nil)
	writeResult(w, http.StatusOK, Result{
		Success:   true,
		PublicURL: h.avatars.Config().DefaultURL,
		Message:   h.printer.Sprintf(i18n.AvatarDeleted),
	})
}

// authorize checks the CSRF token and resolves the signed-in user, writing
// the error response itself when either fails.
func (h Handler) authorize(w http.ResponseWriter, r *http.Request, token string) (domain.User, bool) {
	session, _ := h.deps.GetSession(r, core.SessionName)
	if !h.deps.ValidateCSRF(session, token) {
		h.writeMessage(w, http.StatusBadRequest, i18n.RequestInvalidCSRF)
		return domain.User{}, false
	}
	current, err := h.deps.CurrentUser(r)
	if err != nil {
		h.writeMessage(w, http.StatusForbidden, i18n.RequestForbidden)
		return domain.User{}, false
	}
	return current, true
}

// replaced removes the previous avatar once the user record points at the new one.
func (h Handler) replaced(previous, next string) {
	if previous != "" && previous != next {
		h.avatars.Delete(previous)
	}
}

func (h Handler) writeMessage(w http.ResponseWriter, status int, key string) {
	writeResult(w, status, Result{Message: h.printer.Sprintf(key)})
}

// csrfToken prefers the submitted form field and falls back to the
// X-CSRF-Token header. A nil fields map reads the parsed request form.
func csrfToken(r *http.Request, fields url.Values) string {
	var token string
	if fields != nil {
		token = fields.Get("csrf_token")
	} else {
		token = r.FormValue("csrf_token")
	}
	if token == "" {
		token = r.Header.Get("X-CSRF-Token")
	}
	return token
}

// receive streams the multipart body, copying the first "avatar" file part
// into a temp file and collecting plain fields on either side of it. Fields
// read before the body limit trips are still returned, so a token sent ahead
// of an oversize file can be checked. The returned func removes the temp file.
func receive(r *http.Request) (File, url.Values, func()) {
	noop := func() {}
	fields := url.Values{}
	reader, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return File{Error: UploadNoFile}, nil, noop
		}
		return File{Error: UploadPartial}, fields, noop
	}

	var upload File
	found := false
	cleanup := noop
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{Error: transportError(err)}, fields, cleanup
		}
		name := part.FormName()
		switch {
		case part.FileName() == "":
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if err != nil {
				_ = part.Close()
				return File{Error: transportError(err)}, fields, cleanup
			}
			fields.Add(name, string(value))
		case name == "avatar" && !found:
			found = true
			tmp, err := os.CreateTemp("", "avatar_upload_*")
			if err != nil {
				_ = part.Close()
				return File{Error: UploadNoTmpDir}, fields, cleanup
			}
			tmpPath := tmp.Name()
			cleanup = func() { _ = os.Remove(tmpPath) }
			n, copyErr := io.Copy(tmp, part)
			closeErr := tmp.Close()
			if copyErr != nil {
				_ = part.Close()
				return File{Error: transportError(copyErr)}, fields, cleanup
			}
			if closeErr != nil {
				_ = part.Close()
				return File{Error: UploadCantWrite}, fields, cleanup
			}
			upload = File{TempPath: tmpPath, Size: n}
		}
		_ = part.Close()
	}
	if !found || upload.Size == 0 {
		return File{Error: UploadNoFile}, fields, cleanup
	}
	return upload, fields, cleanup
}

// transportError maps a body read failure onto an upload error code.
func transportError(err error) UploadError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return UploadFormSize
	}
	return UploadPartial
}

// parseSize reads the size query parameter, defaulting to medium.
func parseSize(r *http.Request) string {
	size := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("size")))
	switch size {
	case SizeOriginal, config.SizeSmall, config.SizeMedium, config.SizeLarge:
		return size
	default:
		return config.SizeMedium
	}
}
