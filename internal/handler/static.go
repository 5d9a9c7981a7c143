package handler

import (
	"inspector/config"
	cErr "inspector/internal/pkg/error"
	"inspector/internal/pkg/response"
	utilsPath "inspector/utils/path"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// StaticHandler 首頁與 public 目錄下的靜態檔案；找不到檔案時回 404 錯誤格式
type StaticHandler struct {
	root string
}

func NewStaticHandler(config *config.Configuration) *StaticHandler {
	return &StaticHandler{root: utilsPath.ResolveDir(config.Inspector.PublicDir)}
}

// Index GET /
func (h *StaticHandler) Index(c *gin.Context) {
	h.serve(c, "index.html")
}

// Fallback 未命中路由時，GET/HEAD 嘗試以路徑對應 public 下的檔案
func (h *StaticHandler) Fallback(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.AbortWithError(c, cErr.NotFound("route not found"))
		return
	}
	h.serve(c, c.Request.URL.Path)
}

func (h *StaticHandler) serve(c *gin.Context, name string) {
	// path.Clean 以 "/" 為根，無法跳出 root
	clean := path.Clean("/" + name)
	full := filepath.Join(h.root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		response.AbortWithError(c, cErr.NotFound("route not found"))
		return
	}
	c.File(full)
}
