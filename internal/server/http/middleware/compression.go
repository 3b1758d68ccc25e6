package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestBody caps request payloads after decompression.
const MaxRequestBody int64 = 4 << 20

type gzipBody struct {
	*gzip.Reader
	raw interface{ Close() error }
}

func (b gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.raw.Close()
}

// DecompressRequest inflates gzip encoded bodies and bounds every body to
// MaxRequestBody bytes. Oversized payloads fail while being read.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := strings.ToLower(c.GetHeader("Content-Encoding"))
		if encoding != "" && encoding != "identity" && !strings.Contains(encoding, "gzip") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": gin.H{
				"code":    "unsupported_encoding",
				"message": "only gzip request bodies are accepted",
			}})
			return
		}

		if strings.Contains(encoding, "gzip") {
			reader, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{
					"code":    "invalid_gzip",
					"message": "request body is not valid gzip",
				}})
				return
			}
			c.Request.Body = gzipBody{Reader: reader, raw: c.Request.Body}
			c.Request.Header.Del("Content-Encoding")
			c.Request.ContentLength = -1
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBody)
		c.Next()
	}
}
