package level

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"cellworld/internal/gpu"
	"cellworld/internal/kernels"
	"cellworld/internal/world"
)

var (
	dead  = world.Cell(kernels.Dead)
	alive = world.Cell(kernels.Alive)
	wall  = world.Cell(kernels.Wall)
)

func TestDecodeBinaryPGM(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("P5\n# level one\n3 2\n255\n")
	buf.Write([]byte{0, 255, 128, 255, 10, 200})
	lvl, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if lvl.Dims != (gpu.Dims{Width: 3, Height: 2}) {
		t.Fatalf("dims = %v", lvl.Dims)
	}
	want := []world.Cell{dead, alive, wall, alive, dead, alive}
	for i := range want {
		if lvl.Cells[i] != want[i] {
			t.Errorf("cell %d = %d, want %d", i, lvl.Cells[i], want[i])
		}
	}
	if got := len(lvl.Seed()); got != 6*world.CellSize {
		t.Errorf("seed is %d bytes", got)
	}
}

func TestDecodePlainPGMScalesMaxval(t *testing.T) {
	lvl, err := Decode(strings.NewReader("P2 2 2 15\n0 15\n# wall next\n8 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []world.Cell{dead, alive, wall, dead}
	for i := range want {
		if lvl.Cells[i] != want[i] {
			t.Errorf("cell %d = %d, want %d", i, lvl.Cells[i], want[i])
		}
	}
}

func TestDecodePGMErrors(t *testing.T) {
	cases := map[string]string{
		"truncated raster": "P5\n4 4\n255\n\x00\x00",
		"zero width":       "P5\n0 4\n255\n",
		"16-bit":           "P5\n1 1\n65535\n\x00\x00",
		"bad sample":       "P2\n1 1\n255\n300\n",
		"short header":     "P2\n4",
	}
	for name, data := range cases {
		if _, err := Decode(strings.NewReader(data)); !errors.Is(err, ErrAssetLoad) {
			t.Errorf("%s: got %v, want ErrAssetLoad", name, err)
		}
	}
}

func TestDecodeRejectsOversizedHeaders(t *testing.T) {
	cases := map[string]string{
		"product overflows int": "P5 4294967296 4294967296 255\n",
		"product exceeds int":   "P5 3037000500 3037000500 255\n\x00",
		"above cell cap":        "P5 8192 8192 255\n\x00",
		"plain above cell cap":  "P2 4097 4097 255\n0\n",
		"plain raster short":    "P2 4 4 255\n0 0 0\n",
	}
	for name, data := range cases {
		lvl, err := Decode(strings.NewReader(data))
		if !errors.Is(err, ErrAssetLoad) {
			t.Errorf("%s: got level %v, err %v; want ErrAssetLoad", name, lvl, err)
		}
	}
}

// pngHeader returns a grayscale PNG signature and IHDR chunk claiming w x h.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type 0 is gray
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	_, err := Decode(bytes.NewReader(pngHeader(8192, 8192)))
	if !errors.Is(err, ErrAssetLoad) || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("got %v, want cell cap ErrAssetLoad", err)
	}
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Gray{Y: 100})
	img.Set(2, 0, color.Black)
	img.Set(3, 2, color.White)
	return img
}

func checkTestImage(t *testing.T, lvl *Level) {
	t.Helper()
	if lvl.Dims != (gpu.Dims{Width: 4, Height: 3}) {
		t.Fatalf("dims = %v", lvl.Dims)
	}
	if lvl.Cells[0] != alive || lvl.Cells[1] != wall || lvl.Cells[2] != dead || lvl.Cells[11] != alive {
		t.Errorf("cells = %v", lvl.Cells)
	}
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	lvl, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	checkTestImage(t, lvl)
	// fully transparent pixels stay dead
	if lvl.Cells[5] != dead {
		t.Errorf("transparent cell = %d", lvl.Cells[5])
	}
}

func TestLoadBMPFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	img := testImage()
	// bmp drops alpha, so paint the background black
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0 {
			img.Pix[i] = 255
		}
	}
	if err := bmp.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()
	lvl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkTestImage(t, lvl)
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.pgm")); !errors.Is(err, ErrAssetLoad) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := Decode(strings.NewReader("not an image")); !errors.Is(err, ErrAssetLoad) {
		t.Errorf("corrupt data: got %v", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	opts := GenerateOptions{Dims: gpu.Dims{Width: 128, Height: 96}, Seed: 42, Density: 0.5, Walls: 10}
	a, err := Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[world.Cell]int{}
	for i := range a.Cells {
		if a.Cells[i] != b.Cells[i] {
			t.Fatalf("cell %d differs between runs", i)
		}
		counts[a.Cells[i]]++
	}
	if counts[alive] == 0 || counts[wall] == 0 {
		t.Errorf("generated level lacks live cells or walls: %v", counts)
	}
	w, h := opts.Dims.Width, opts.Dims.Height
	if a.Cells[(h/2)*w+w/2] == wall {
		t.Error("wall placed at the grid center")
	}
	for x := 0; x < w; x++ {
		if a.Cells[x] == wall || a.Cells[(h-1)*w+x] == wall {
			t.Fatal("wall placed on the border")
		}
	}
}

func TestGenerateRejectsEmptyGrid(t *testing.T) {
	if _, err := Generate(GenerateOptions{Dims: gpu.Dims{Width: 0, Height: 4}}); err == nil {
		t.Fatal("expected error")
	}
}
