package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/orderpay/internal/server/http/dto"
)

// DefaultBodyLimit caps request bodies after decompression.
const DefaultBodyLimit int64 = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// DecompressRequest inflates gzip encoded bodies and rejects bodies larger than
// limit bytes once inflated. Gateways post raw payloads that are stored as-is.
func DecompressRequest(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		original := c.Request.Body
		if original == nil || original == http.NoBody {
			c.Next()
			return
		}

		var source io.Reader = original
		if strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			reader, err := gzip.NewReader(original)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed gzip body"})
				return
			}
			defer reader.Close()
			source = reader
			c.Request.Header.Del("Content-Encoding")
			c.Request.ContentLength = -1
		}
		defer original.Close()

		c.Request.Body = &cappedBody{r: source, left: limit}
		c.Next()

		if body, ok := c.Request.Body.(*cappedBody); ok && body.exceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: errBodyTooLarge.Error()})
		}
	}
}

type cappedBody struct {
	r        io.Reader
	left     int64
	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		// one byte past the limit tells an exact-size body from an oversized one
		var extra [1]byte
		if n, _ := b.r.Read(extra[:]); n > 0 {
			b.exceeded = true
			return 0, errBodyTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.r.Read(p)
	b.left -= int64(n)
	return n, err
}

func (b *cappedBody) Close() error { return nil }
