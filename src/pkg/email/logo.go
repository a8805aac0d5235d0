package email

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const LogoContentID = "logo"

/*
FetchLogo downloads the brand logo and returns it as an inline PNG
attachment referenced by cid:logo. Images wider than maxWidth are scaled
down, keeping the aspect ratio.
*/
func FetchLogo(ctx context.Context, logoURL string, maxWidth int) (attachment Attachment, e *xerr.Error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return attachment, xerr.NewError(err, "Unable to create logo request", logoURL)
	}
	request.Header.Set("Accept-Encoding", "gzip, deflate, br")

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return attachment, xerr.NewError(err, "Unable to fetch logo", logoURL)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return attachment, xerr.NewError(fmt.Errorf("status %d", response.StatusCode), "Unable to fetch logo", logoURL)
	}

	body, e := GetBody(response, logoURL)
	if e != nil {
		return attachment, e
	}

	content, e := ResizeLogo(body, maxWidth)
	if e != nil {
		return attachment, e
	}

	tl.Log(tl.Info1, palette.Green, "Fetched logo '%s' (%s bytes)", logoURL, len(content))
	return Attachment{
		Filename:    "logo.png",
		ContentType: "image/png",
		ContentID:   LogoContentID,
		Inline:      true,
		Content:     content,
	}, nil
}

// ResizeLogo decodes any supported image and re-encodes it as PNG no wider than maxWidth.
func ResizeLogo(raw []byte, maxWidth int) (content []byte, e *xerr.Error) {
	image, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, xerr.NewError(err, "Unable to decode logo", len(raw))
	}

	if maxWidth > 0 && image.Bounds().Dx() > maxWidth {
		image = imaging.Resize(image, maxWidth, 0, imaging.Lanczos)
	}

	var buffer bytes.Buffer
	err = imaging.Encode(&buffer, image, imaging.PNG)
	if err != nil {
		return nil, xerr.NewError(err, "Unable to encode logo", len(raw))
	}
	return buffer.Bytes(), nil
}
