package util

import (
	"encoding/base64"

	qrgen "github.com/skip2/go-qrcode"
)

// GenerateQRCode 生成二维码图片，返回base64编码的PNG图片
// content: 二维码内容（分享链接）
// size: 二维码尺寸（像素）
func GenerateQRCode(content string, size int) (string, error) {
	png, err := qrgen.Encode(content, qrgen.Medium, size)
	if err != nil {
		return "", err
	}

	base64Str := base64.StdEncoding.EncodeToString(png)
	return "data:image/png;base64," + base64Str, nil
}
