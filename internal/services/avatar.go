package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"net/url"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// AvatarResolver derives a contact's avatar image reference from its
// identifying fields. An empty result with a nil error means the contact
// has nothing to resolve from.
type AvatarResolver interface {
	ResolveAvatar(ctx context.Context, rec types.Record) (string, error)
}

// GravatarResolver points avatars at the public gravatar service keyed by
// the md5 of the contact's email.
type GravatarResolver struct {
	log *logger.Logger
}

func NewGravatarResolver(log *logger.Logger) *GravatarResolver {
	return &GravatarResolver{log: log.With("service", "GravatarResolver")}
}

func (gr *GravatarResolver) ResolveAvatar(ctx context.Context, rec types.Record) (string, error) {
	email := strings.ToLower(strings.TrimSpace(rec.String("email")))
	if email == "" {
		return "", nil
	}
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=512", hex.EncodeToString(sum[:])), nil
}

// InitialsAvatarResolver renders a 512px initials badge and returns it as
// an inline PNG data URI, so avatars work without any external service.
type InitialsAvatarResolver struct {
	log *logger.Logger

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
}

// NewInitialsAvatarResolver loads the badge font from AVATAR_FONT (a TTF
// path, required) and the background palette from AVATAR_COLORS_JSON_PATH
// when set, falling back to a built-in palette.
func NewInitialsAvatarResolver(log *logger.Logger) (*InitialsAvatarResolver, error) {
	serviceLog := log.With("service", "InitialsAvatarResolver")

	bgColors := defaultAvatarPalette()
	if colorsJSONPath := strings.TrimSpace(os.Getenv("AVATAR_COLORS_JSON_PATH")); colorsJSONPath != "" {
		serviceLog.Info("Loading avatar colors...", "path", colorsJSONPath)
		loaded, err := loadColorsFromFile(colorsJSONPath)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) > 0 {
			bgColors = loaded
		}
	}

	colorByHex := make(map[string]color.NRGBA, len(bgColors))
	for _, c := range bgColors {
		colorByHex[strings.ToUpper(nrgbaToHex(c))] = c
	}

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font", "font", fontPath)
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &InitialsAvatarResolver{
		log:        serviceLog,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		fontFace:   face,
	}, nil
}

func (ir *InitialsAvatarResolver) ResolveAvatar(ctx context.Context, rec types.Record) (string, error) {
	first := strings.TrimSpace(rec.String("first_name"))
	last := strings.TrimSpace(rec.String("last_name"))
	if first == "" && last == "" {
		return "", nil
	}
	seed := strings.ToLower(strings.TrimSpace(rec.String("email")))
	if seed == "" {
		seed = strings.ToLower(first + " " + last)
	}

	buf, err := ir.renderInitials(computeInitials(first, last), seed)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// avatarSize is the pixel width of every generated or re-encoded avatar.
const avatarSize = 512

func (ir *InitialsAvatarResolver) renderInitials(initials, seed string) (bytes.Buffer, error) {
	const size = avatarSize

	dc := gg.NewContext(size, size)

	// Clip to circle
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	// Fill bg
	dc.SetColor(ir.pickColor(seed))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	dc.SetFontFace(ir.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor maps the seed onto the palette, so the same contact always
// gets the same background.
func (ir *InitialsAvatarResolver) pickColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return ir.bgColors[int(h.Sum32())%len(ir.bgColors)]
}

// ProcessAvatarImage center-crops raw image bytes to a square, resizes to
// size x size and clips to a circle, returning encoded PNG bytes.
func ProcessAvatarImage(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	// Resize to NxN
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	// Circle clip with gg
	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}

	return out, nil
}

// -------------------- Color helpers --------------------

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	s = strings.ToUpper(s)
	if len(s) != 7 {
		return ""
	}
	if _, _, _, err := parseHexRGB(s); err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	if strings.HasPrefix(s, "#") {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func defaultAvatarPalette() []color.NRGBA {
	return []color.NRGBA{
		{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF},
		{R: 0xE9, G: 0x1E, B: 0x63, A: 0xFF},
		{R: 0x9C, G: 0x27, B: 0xB0, A: 0xFF},
		{R: 0x67, G: 0x3A, B: 0xB7, A: 0xFF},
		{R: 0x3F, G: 0x51, B: 0xB5, A: 0xFF},
		{R: 0x21, G: 0x96, B: 0xF3, A: 0xFF},
		{R: 0x00, G: 0x96, B: 0x88, A: 0xFF},
		{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF},
		{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF},
		{R: 0x79, G: 0x55, B: 0x48, A: 0xFF},
	}
}

// -------------------- Misc helpers --------------------

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := "?"
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

// loadColorsFromFile reads a JSON array of "#RRGGBB" strings.
func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var hexes []string
	if err := json.Unmarshal(data, &hexes); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	colors := make([]color.NRGBA, 0, len(hexes))
	for _, h := range hexes {
		n := normalizeHex(h)
		if n == "" {
			return nil, fmt.Errorf("invalid color %q", h)
		}
		r, g, b, err := parseHexRGB(n)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", h, err)
		}
		colors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return colors, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}

// emailDomain extracts the domain part of an address, "" when malformed.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if _, err := url.Parse("https://" + domain); err != nil {
		return ""
	}
	return domain
}
