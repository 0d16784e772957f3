package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"filedrop/internal/http/views"
	"filedrop/internal/models"
	"filedrop/internal/uploads"

	"github.com/gorilla/mux"
)

// Files is the upload directory. *uploads.Registry implements it.
type Files interface {
	List() ([]string, error)
	Store(src io.Reader, originalName string) (string, error)
	Delete(name string) error
}

// multipartSlack is the room left for multipart headers and boundaries on top of
// the file size limit.
const multipartSlack = 1 << 20

type FileHandler struct {
	pages
	files         Files
	maxFileSize   int64
	publicBaseURL string
}

func NewFileHandler(files Files, store SessionStore, maxFileSize int64, publicBaseURL string) *FileHandler {
	return &FileHandler{
		pages:         pages{store: store},
		files:         files,
		maxFileSize:   maxFileSize,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (h *FileHandler) Index(w http.ResponseWriter, r *http.Request) {
	names, err := h.files.List()
	if err != nil {
		logError(r, "list_failed", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "index", views.Page{Title: "Files", Files: names})
}

func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartSlack)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		case errors.Is(err, http.ErrNotMultipart):
			h.noFile(w, r)
			return
		default:
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.noFile(w, r)
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	name, err := h.files.Store(file, header.Filename)
	if err != nil {
		logError(r, "store_failed", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.notify(w, r, models.Notice{
		Kind:    models.NoticeSuccess,
		Message: "File uploaded successfully:",
		Link:    h.publicBaseURL + "/uploads/" + name,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *FileHandler) noFile(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, models.Notice{Kind: models.NoticeError, Message: "No file uploaded."})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	err := h.files.Delete(filename)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result{Success: true})
	case errors.Is(err, uploads.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, result{Success: false})
	case errors.Is(err, uploads.ErrNotFound):
		writeJSON(w, http.StatusNotFound, result{Success: false})
	default:
		logError(r, "delete_failed", err)
		writeJSON(w, http.StatusInternalServerError, result{Success: false})
	}
}
