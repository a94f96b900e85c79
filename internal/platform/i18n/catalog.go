// Package i18n registers user-facing message strings with x/text/message and
// resolves printers for the configured locale.
package i18n

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseLocale is the fallback locale for every message.
const BaseLocale = "en-US"

// Message keys.
const (
	UploadErrIniSize        = "avatar.upload.err_ini_size"
	UploadErrFormSize       = "avatar.upload.err_form_size"
	UploadErrPartial        = "avatar.upload.err_partial"
	UploadErrNoFile         = "avatar.upload.err_no_file"
	UploadErrNoTmpDir       = "avatar.upload.err_no_tmp_dir"
	UploadErrCantWrite      = "avatar.upload.err_cant_write"
	UploadErrExtension      = "avatar.upload.err_extension"
	UploadErrUnknown        = "avatar.upload.err_unknown"
	UploadUnsupportedType   = "avatar.upload.unsupported_type"
	UploadTooLarge          = "avatar.upload.too_large"
	UploadDirectoryFailed   = "avatar.upload.directory_failed"
	UploadUnsupportedImage  = "avatar.upload.unsupported_image"
	UploadProcessingFailed  = "avatar.upload.processing_failed"
	UploadSucceeded         = "avatar.upload.succeeded"
	DefaultGenerationFailed = "avatar.default.failed"
	DefaultGenerated        = "avatar.default.generated"
	AvatarDeleted           = "avatar.deleted"
	AvatarDeleteFailed      = "avatar.delete_failed"
	RequestInvalidCSRF      = "request.invalid_csrf"
	RequestForbidden        = "request.forbidden"
	RequestMethodNotAllowed = "request.method_not_allowed"
	RequestSaveFailed       = "request.save_failed"
)

var catalogs = map[string]map[string]string{
	"en-US": {
		UploadErrIniSize:        "The uploaded file exceeds the maximum size allowed by the server.",
		UploadErrFormSize:       "The uploaded file exceeds the maximum size allowed by the form.",
		UploadErrPartial:        "The file was only partially uploaded.",
		UploadErrNoFile:         "No file was uploaded.",
		UploadErrNoTmpDir:       "The server is missing a temporary folder.",
		UploadErrCantWrite:      "The server failed to write the file to disk.",
		UploadErrExtension:      "The upload was stopped by the server.",
		UploadErrUnknown:        "An unknown upload error occurred.",
		UploadUnsupportedType:   "Unsupported file type. Allowed types: %s.",
		UploadTooLarge:          "The file is too large. Maximum size: %s MB.",
		UploadDirectoryFailed:   "The avatar could not be stored.",
		UploadUnsupportedImage:  "This image format cannot be processed.",
		UploadProcessingFailed:  "An error occurred while processing the image.",
		UploadSucceeded:         "Your avatar has been updated.",
		DefaultGenerationFailed: "The default avatar could not be generated.",
		DefaultGenerated:        "A default avatar has been generated.",
		AvatarDeleted:           "Your avatar has been removed.",
		AvatarDeleteFailed:      "The avatar could not be removed.",
		RequestInvalidCSRF:      "Invalid CSRF token.",
		RequestForbidden:        "You must be signed in.",
		RequestMethodNotAllowed: "Method not allowed.",
		RequestSaveFailed:       "Your profile could not be saved.",
	},
	"fr-FR": {
		UploadErrIniSize:        "Le fichier envoyé dépasse la taille maximale autorisée par le serveur.",
		UploadErrFormSize:       "Le fichier envoyé dépasse la taille maximale autorisée par le formulaire.",
		UploadErrPartial:        "Le fichier n'a été que partiellement envoyé.",
		UploadErrNoFile:         "Aucun fichier n'a été envoyé.",
		UploadErrNoTmpDir:       "Le dossier temporaire est manquant sur le serveur.",
		UploadErrCantWrite:      "Le serveur n'a pas pu écrire le fichier sur le disque.",
		UploadErrExtension:      "L'envoi a été interrompu par le serveur.",
		UploadErrUnknown:        "Une erreur inconnue est survenue pendant l'envoi.",
		UploadUnsupportedType:   "Type de fichier non pris en charge. Types autorisés : %s.",
		UploadTooLarge:          "Le fichier est trop volumineux. Taille maximale : %s Mo.",
		UploadDirectoryFailed:   "L'avatar n'a pas pu être enregistré.",
		UploadUnsupportedImage:  "Ce format d'image ne peut pas être traité.",
		UploadProcessingFailed:  "Une erreur est survenue lors du traitement de l'image.",
		UploadSucceeded:         "Votre avatar a été mis à jour.",
		DefaultGenerationFailed: "L'avatar par défaut n'a pas pu être généré.",
		DefaultGenerated:        "Un avatar par défaut a été généré.",
		AvatarDeleted:           "Votre avatar a été supprimé.",
		AvatarDeleteFailed:      "L'avatar n'a pas pu être supprimé.",
		RequestInvalidCSRF:      "Jeton CSRF invalide.",
		RequestForbidden:        "Vous devez être connecté.",
		RequestMethodNotAllowed: "Méthode non autorisée.",
		RequestSaveFailed:       "Votre profil n'a pas pu être enregistré.",
	},
}

var (
	registerOnce sync.Once
	registerErr  error
	supported    []language.Tag
	matcher      language.Matcher
)

// Register loads every catalog into the x/text default catalog. It is safe to
// call more than once.
func Register() error {
	registerOnce.Do(func() {
		registerErr = register()
	})
	return registerErr
}

func register() error {
	// BaseLocale first so the matcher falls back to it.
	locales := []string{BaseLocale}
	for locale := range catalogs {
		if locale != BaseLocale {
			locales = append(locales, locale)
		}
	}
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, _ := tag.Base(); base.String() != "und" {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag != tag {
				tags = append(tags, baseTag)
			}
		}
		for key, value := range catalogs[locale] {
			for _, registerTag := range tags {
				if err := message.SetString(registerTag, key, value); err != nil {
					return fmt.Errorf("register %s/%s: %w", locale, key, err)
				}
			}
		}
		supported = append(supported, tag)
	}
	matcher = language.NewMatcher(supported)
	return nil
}

// Printer returns a printer for the closest supported locale, falling back to
// BaseLocale for unknown or malformed values.
func Printer(locale string) *message.Printer {
	if err := Register(); err != nil {
		return message.NewPrinter(language.MustParse(BaseLocale))
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return message.NewPrinter(supported[0])
	}
	_, index, _ := matcher.Match(tag)
	return message.NewPrinter(supported[index])
}
