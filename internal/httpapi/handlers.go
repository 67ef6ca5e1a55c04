package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/forPelevin/capburn/internal/deps"
	"github.com/forPelevin/capburn/internal/language"
	"github.com/forPelevin/capburn/internal/storage"
	"github.com/forPelevin/capburn/internal/types"
)

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type generateRequest struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
}

type generateResponse struct {
	Message   string `json:"message"`
	SRTFile   string `json:"srt_file"`
	VideoFile string `json:"video_file"`
}

type burnResponse struct {
	Message   string `json:"message"`
	VideoFile string `json:"video_file"`
}

type healthResponse struct {
	Status       string        `json:"status"`
	Dependencies []deps.Status `json:"dependencies"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := deps.Check(s.svc.Requirements())
	if deps.Ready(statuses) {
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Dependencies: statuses})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Dependencies: statuses})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := formFile(r, "file")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer file.Close()
	if !storage.AllowedExt(header.Filename, storage.VideoExtensions) {
		s.writeError(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	asset, err := s.svc.Upload(header.Filename, file)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, uploadResponse{Message: "File uploaded successfully", Filename: asset.Name})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		s.writeError(w, http.StatusBadRequest, "No filename provided")
		return
	}

	res, err := s.svc.Generate(r.Context(), req.Filename, req.Language)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, generateResponse{
		Message:   "Subtitles generated successfully",
		SRTFile:   res.SRTFile,
		VideoFile: res.VideoFile,
	})
}

func (s *Server) handleGenerateSRT(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := formFile(r, "video")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer file.Close()
	if !storage.AllowedExt(header.Filename, storage.VideoExtensions) {
		s.writeError(w, http.StatusBadRequest, "File type not allowed")
		return
	}
	lang := r.FormValue("language")
	if err := checkLanguage(lang); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	video, err := s.svc.Upload(header.Filename, file)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	res, err := s.svc.Generate(r.Context(), video.Name, lang)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, generateResponse{
		Message:   "Subtitles generated successfully",
		SRTFile:   res.SRTFile,
		VideoFile: res.VideoFile,
	})
}

func (s *Server) handleUploadWithSRT(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	videoFile, videoHeader, err := formFile(r, "video")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer videoFile.Close()
	srtFile, srtHeader, err := formFile(r, "srt")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer srtFile.Close()

	if !storage.AllowedExt(videoHeader.Filename, storage.VideoExtensions) {
		s.writeError(w, http.StatusBadRequest, "File type not allowed")
		return
	}
	if !storage.AllowedExt(srtHeader.Filename, storage.CaptionExtensions) {
		s.writeError(w, http.StatusBadRequest, "Subtitle file must be .srt")
		return
	}
	lang := r.FormValue("language")
	if err := checkLanguage(lang); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	video, err := s.svc.Upload(videoHeader.Filename, videoFile)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	captions, err := s.svc.UploadCaptions(srtHeader.Filename, srtFile)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	res, err := s.svc.BurnCaptions(r.Context(), video.Name, captions.Name, lang)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, burnResponse{Message: "Subtitles burned successfully", VideoFile: res.VideoFile})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	asset, err := s.svc.Open(r.PathValue("filename"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	f, err := os.Open(asset.Path)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("open %s: %w", asset.Name, err))
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("stat %s: %w", asset.Name, err))
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": asset.Name}))
	http.ServeContent(w, r, asset.Name, fi.ModTime(), f)
}

// parseMultipart bounds the request body by the configured upload limit
// before parsing it.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &types.ValidationError{Field: "file", Reason: "No file part"}
	}
	return nil
}

// formFile distinguishes an absent field from a file field submitted
// without a filename. The multipart reader files the latter under values.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err == nil {
		if strings.TrimSpace(header.Filename) == "" {
			_ = file.Close()
			return nil, nil, &types.ValidationError{Field: field, Reason: "No selected file"}
		}
		return file, header, nil
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return nil, nil, err
	}
	if _, ok := r.MultipartForm.Value[field]; ok {
		return nil, nil, &types.ValidationError{Field: field, Reason: "No selected file"}
	}
	return nil, nil, &types.ValidationError{Field: field, Reason: "No file part"}
}

func checkLanguage(lang string) error {
	if _, err := language.Normalize(lang); err != nil {
		return &types.ValidationError{Field: "language", Reason: err.Error()}
	}
	return nil
}

// writeFailure maps pipeline errors onto status codes. Tool and recognizer
// diagnostics are returned verbatim.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := s.statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log().Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	s.writeError(w, status, message)
}

func (s *Server) statusFor(err error) (int, string) {
	var (
		tooLarge    *http.MaxBytesError
		validation  *types.ValidationError
		notFound    *types.NotFoundError
		transcode   *types.TranscodeError
		recognition *types.RecognitionError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds the %s limit", humanize.Bytes(uint64(tooLarge.Limit)))
	case errors.As(err, &validation):
		if validation.Field == "file" || validation.Field == "video" || validation.Field == "srt" {
			return http.StatusBadRequest, validation.Reason
		}
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, "File not found"
	case errors.As(err, &transcode):
		return http.StatusInternalServerError, transcode.Diagnostic()
	case errors.As(err, &recognition):
		return http.StatusInternalServerError, recognition.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
