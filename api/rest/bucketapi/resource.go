// Package bucketapi exposes the bucket operations as a go-restful web
// service.
package bucketapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/gorilla/schema"
	"github.com/timemore/bucket/api/rest"
	resterrs "github.com/timemore/bucket/api/rest/errors"
	"github.com/timemore/bucket/bucket"
	"github.com/timemore/bucket/errors"
	dataerrs "github.com/timemore/bucket/errors/data"
	"github.com/timemore/bucket/filesystem"
	"github.com/timemore/bucket/logger"
)

var log = logger.NewPkgLogger()

const (
	MaxUploadSizeDefault = 32 << 20

	// TemporaryURLExpiryDefault is used when a temporary URL request has
	// no expires parameter.
	TemporaryURLExpiryDefault = "+1 hour"

	uploadFormField = "file"
)

type BucketResource struct {
	manager       *bucket.Manager
	decoder       *schema.Decoder
	maxUploadSize int64
}

func NewBucketResource(manager *bucket.Manager, maxUploadSize int64) *BucketResource {
	if maxUploadSize <= 0 {
		maxUploadSize = MaxUploadSizeDefault
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &BucketResource{
		manager:       manager,
		decoder:       decoder,
		maxUploadSize: maxUploadSize,
	}
}

func (r *BucketResource) RestfulWebService(basePath string) *restful.WebService {
	ws := new(restful.WebService)
	ws.Path(basePath).
		Produces(restful.MIME_JSON)

	tags := []string{"bucket"}
	bucketParam := ws.PathParameter("bucket", "The name of the bucket")
	optionParams := []*restful.Parameter{
		ws.QueryParameter("name", "Store the object under this name"),
		ws.QueryParameter("overwrite", "Replace an existing object").DataType("boolean"),
		ws.QueryParameter("rename", "Store under a generated name when taken").DataType("boolean"),
	}

	createFile := ws.POST("/{bucket}/files").
		Metadata("tags", tags).
		To(r.postFile).
		Doc("Create an object from the request body").
		Consumes("*/*").
		Param(bucketParam).
		Param(ws.QueryParameter("path", "Object path, or the target directory when name is set").Required(true)).
		Returns(http.StatusCreated, "Created", ResultJSON{}).
		Returns(http.StatusBadRequest, "Invalid request", rest.ErrorResponse{}).
		Returns(http.StatusNotFound, "Unknown bucket", rest.ErrorResponse{}).
		Returns(http.StatusUnprocessableEntity, "Not stored", rest.ErrorResponse{})
	for _, p := range optionParams {
		createFile.Param(p)
	}
	ws.Route(createFile)

	upload := ws.POST("/{bucket}/uploads").
		Metadata("tags", tags).
		To(r.postUpload).
		Doc("Upload a multipart file into a directory").
		Consumes("multipart/form-data").
		Param(bucketParam).
		Param(ws.QueryParameter("directory", "Destination directory")).
		Param(ws.FormParameter(uploadFormField, "The file").DataType("file").Required(true)).
		Returns(http.StatusCreated, "Created", ResultJSON{}).
		Returns(http.StatusBadRequest, "Invalid request", rest.ErrorResponse{}).
		Returns(http.StatusNotFound, "Unknown bucket", rest.ErrorResponse{}).
		Returns(http.StatusRequestEntityTooLarge, "Too large", rest.ErrorResponse{}).
		Returns(http.StatusUnprocessableEntity, "Not stored", rest.ErrorResponse{})
	for _, p := range optionParams {
		upload.Param(p)
	}
	ws.Route(upload)

	ws.Route(ws.GET("/{bucket}/url").
		Metadata("tags", tags).
		To(r.getURL).
		Doc("Public URL of an object").
		Param(bucketParam).
		Param(ws.QueryParameter("path", "Object path").Required(true)).
		Returns(http.StatusOK, "OK", URLJSON{}).
		Returns(http.StatusNotFound, "Unresolvable", rest.ErrorResponse{}))

	ws.Route(ws.GET("/{bucket}/temporary-url").
		Metadata("tags", tags).
		To(r.getTemporaryURL).
		Doc("Presigned URL of an object").
		Param(bucketParam).
		Param(ws.QueryParameter("path", "Object path").Required(true)).
		Param(ws.QueryParameter("expires", "Expiry, e.g. +1 hour, 90m or an RFC 3339 time").
			DefaultValue(TemporaryURLExpiryDefault)).
		Returns(http.StatusOK, "OK", URLJSON{}).
		Returns(http.StatusBadRequest, "Invalid request", rest.ErrorResponse{}).
		Returns(http.StatusNotFound, "Unknown bucket", rest.ErrorResponse{}))

	ws.Route(ws.GET("/{bucket}/errors").
		Metadata("tags", tags).
		To(r.getErrors).
		Doc("Failures recorded by the bucket handle").
		Param(bucketParam).
		Returns(http.StatusOK, "OK", map[string]string{}).
		Returns(http.StatusNotFound, "Unknown bucket", rest.ErrorResponse{}))

	return ws
}

type fileQuery struct {
	Path      string `schema:"path"`
	Directory string `schema:"directory"`
	Name      string `schema:"name"`
	Overwrite bool   `schema:"overwrite"`
	Rename    bool   `schema:"rename"`
	Expires   string `schema:"expires"`
}

func (q fileQuery) uploadOptions() bucket.UploadOptions {
	return bucket.UploadOptions{
		Name:      q.Name,
		Overwrite: q.Overwrite,
		Rename:    q.Rename,
	}
}

type ResultJSON struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

type URLJSON struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (r *BucketResource) handle(req *restful.Request) (*bucket.Handle, error) {
	bucketName := req.PathParameter("bucket")
	h := r.manager.Get(bucketName)
	if h == nil {
		return nil, errors.NewConfigurationMsg("bucket `" + bucketName + "` is not configured")
	}
	return h, nil
}

func (r *BucketResource) query(req *restful.Request) (fileQuery, error) {
	var q fileQuery
	if err := r.decoder.Decode(&q, req.Request.URL.Query()); err != nil {
		return q, errors.Arg("query", err)
	}
	return q, nil
}

func (r *BucketResource) postFile(req *restful.Request, resp *restful.Response) {
	ctx := rest.NewRequestContext(req.Request)

	h, err := r.handle(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	q, err := r.query(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(resp, req.Request.Body, r.maxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rest.RespondTo(resp).Error(&rest.ErrorResponse{
				Code:        "too_large",
				Description: err.Error(),
			}, http.StatusRequestEntityTooLarge)
			return
		}
		resterrs.RespondTo(resp, dataerrs.Malformed(err))
		return
	}
	if len(body) == 0 {
		resterrs.RespondTo(resp, errors.Wrap("request body", dataerrs.ErrEmpty))
		return
	}

	res, err := h.CreateFile(ctx, q.Path, body, q.uploadOptions())
	if err != nil {
		log.WithRequest(req.Request).Warn().Err(err).
			Str("request_id", ctx.RequestID().String()).Msg("create file")
		resterrs.RespondTo(resp, err)
		return
	}
	respondResult(resp, res)
}

func (r *BucketResource) postUpload(req *restful.Request, resp *restful.Response) {
	ctx := rest.NewRequestContext(req.Request)

	h, err := r.handle(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	q, err := r.query(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}

	req.Request.Body = http.MaxBytesReader(resp, req.Request.Body, r.maxUploadSize)
	file, fileHeader, err := req.Request.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rest.RespondTo(resp).Error(&rest.ErrorResponse{
				Code:        "too_large",
				Description: err.Error(),
			}, http.StatusRequestEntityTooLarge)
			return
		}
		resterrs.RespondTo(resp, dataerrs.Malformed(errors.Wrap("form field "+uploadFormField, err)))
		return
	}
	defer func() {
		if req.Request.MultipartForm != nil {
			_ = req.Request.MultipartForm.RemoveAll()
		}
	}()

	opts := q.uploadOptions()
	if opts.Name == "" {
		opts.Name = bucket.Normalize(fileHeader.Filename)
	}
	// Without a usable name, the object is named after its content.
	if opts.Name == "" {
		if opts.Name, err = contentName(file); err != nil {
			_ = file.Close()
			resterrs.RespondTo(resp, dataerrs.Malformed(err))
			return
		}
	}

	// The multipart file may be spooled to disk; hide its temporary name
	// so failures are keyed by the name the client sent.
	stream := struct{ io.ReadCloser }{file}
	res, err := h.UploadStream(ctx, stream, q.Directory, opts)
	if err != nil {
		log.WithRequest(req.Request).Warn().Err(err).
			Str("request_id", ctx.RequestID().String()).Msg("upload")
		resterrs.RespondTo(resp, err)
		return
	}
	respondResult(resp, res)
}

func contentName(file multipart.File) (string, error) {
	name, err := filesystem.ContentName(file, "")
	if err != nil {
		return "", err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ext, err := filesystem.DetectStreamExtension(file)
	if err != nil {
		return "", err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return name + ext, nil
}

func (r *BucketResource) getURL(req *restful.Request, resp *restful.Response) {
	q, err := r.query(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	if bucket.Normalize(q.Path) == "" {
		resterrs.RespondTo(resp, errors.ArgMsg("path", "empty"))
		return
	}

	u, err := r.manager.ResolveURL(req.PathParameter("bucket"), q.Path)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	rest.RespondTo(resp).Success(&URLJSON{URL: u})
}

func (r *BucketResource) getTemporaryURL(req *restful.Request, resp *restful.Response) {
	ctx := rest.NewRequestContext(req.Request)

	h, err := r.handle(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	q, err := r.query(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	if q.Expires == "" {
		q.Expires = TemporaryURLExpiryDefault
	}

	expiresAt, err := bucket.ParseExpiry(q.Expires, time.Now())
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	u, err := h.TemporaryURL(ctx, q.Path, bucket.ExpiresAt(expiresAt))
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	rest.RespondTo(resp).Success(&URLJSON{URL: u, ExpiresAt: &expiresAt})
}

func (r *BucketResource) getErrors(req *restful.Request, resp *restful.Response) {
	h, err := r.handle(req)
	if err != nil {
		resterrs.RespondTo(resp, err)
		return
	}
	rest.RespondTo(resp).Success(h.Errors())
}

func respondResult(resp *restful.Response, res bucket.Result) {
	if !res.OK() {
		rest.RespondTo(resp).Error(&rest.ErrorResponse{
			Code:        resultErrorCode(res.Err),
			Description: res.Err.Error(),
		}, http.StatusUnprocessableEntity)
		return
	}
	rest.RespondTo(resp).SuccessWithHTTPStatusCode(&ResultJSON{
		Path: res.Path,
		URL:  res.URL,
	}, http.StatusCreated)
}

func resultErrorCode(err error) string {
	switch {
	case errors.Is(err, bucket.ErrDestinationExists):
		return "destination_exists"
	case errors.Is(err, bucket.ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, bucket.ErrSourceUnreadable):
		return "source_unreadable"
	}
	return "write_failed"
}
