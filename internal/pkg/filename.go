package pkg

import (
	"net/url"
	"strings"
)

// 与 form 编码对齐：'*' 保留，'~' 转义，空格写成 %20
var filenameReplacer = strings.NewReplacer("+", "%20", "%2A", "*", "~", "%7E")

// EncodeFilename percent-encodes an attachment's original name as UTF-8
// octets for Content-Disposition. Only letters, digits and ".-*_" stay
// literal; spaces become %20, never '+'.
func EncodeFilename(name string) string {
	return filenameReplacer.Replace(url.QueryEscape(name))
}

// ContentDisposition builds an attachment header carrying both the plain and
// the RFC 5987 form of the encoded name.
func ContentDisposition(name string) string {
	enc := EncodeFilename(name)
	return `attachment; filename="` + enc + `"; filename*=UTF-8''` + enc
}
