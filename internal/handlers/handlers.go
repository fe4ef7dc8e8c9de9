package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/recognition"
	"github.com/example/celebrity-recognition/internal/views"
)

// MultipartMemory is how much of a multipart body c.FormFile keeps in memory
// before spilling file parts to temporary files.
const MultipartMemory = 8 << 20

var errEmptyUpload = errors.New("uploaded file is empty")

// Recognizer runs one buffered image through celebrity recognition.
type Recognizer interface {
	Recognize(ctx context.Context, requestID string, image []byte) (*recognition.Response, error)
}

// NewRouter builds a gin engine with the shared middleware, templates and
// static assets installed. Only peers in trustedProxies may set the client
// address through X-Forwarded-For; nil trusts none.
func NewRouter(logger *zap.Logger, trustedProxies []string) (*gin.Engine, error) {
	tmpl, err := views.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	router.MaxMultipartMemory = MultipartMemory
	router.Use(RequestID(), AccessLog(logger), Recovery(logger))
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", views.Static())
	return router, nil
}

// RegisterRoutes wires the HTTP handlers to the Gin router. uploadMiddleware
// runs only in front of the upload endpoint.
func RegisterRoutes(router *gin.Engine, uc Recognizer, logger *zap.Logger, uploadMiddleware ...gin.HandlerFunc) {
	logger = logger.Named("handlers")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, views.Index, views.IndexModel{})
	})

	router.GET("/Privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, views.Privacy, nil)
	})

	router.GET("/Error", func(c *gin.Context) {
		noStore(c)
		c.HTML(http.StatusOK, views.Error, views.ErrorModel{RequestID: GetRequestID(c)})
	})

	upload := append(append([]gin.HandlerFunc{}, uploadMiddleware...), func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.HTML(http.StatusBadRequest, views.Index, views.IndexModel{Message: "Choose an image file to upload."})
			return
		}

		image, err := readUpload(file)
		if errors.Is(err, errEmptyUpload) {
			c.HTML(http.StatusBadRequest, views.Index, views.IndexModel{Message: "The selected file is empty."})
			return
		}
		if err != nil {
			logger.Error("failed to read upload", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			_ = c.Error(err)
			renderError(c, http.StatusInternalServerError)
			return
		}

		resp, err := uc.Recognize(c.Request.Context(), GetRequestID(c), image)
		if err != nil {
			_ = c.Error(err)
			renderError(c, http.StatusInternalServerError)
			return
		}

		c.HTML(http.StatusOK, views.Index, views.IndexModel{
			Submitted:         true,
			Faces:             resp.CelebrityFaces,
			UnrecognizedFaces: resp.UnrecognizedFaces,
		})
	})
	router.POST("/UploadImage", upload...)
}

// readUpload copies the whole uploaded file into memory and always closes it.
func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var buf bytes.Buffer
	if file.Size > 0 {
		buf.Grow(int(file.Size))
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, errEmptyUpload
	}
	return buf.Bytes(), nil
}
