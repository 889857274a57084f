package oifits

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

type waveRow struct {
	Wave float32 `fits:"EFF_WAVE"`
	Band float32 `fits:"EFF_BAND"`
}

var (
	scalarF64  = reflect.TypeOf(float64(0))
	scalarBool = reflect.TypeOf(false)
)

// vis2RowType builds the scan destination for an OI_VIS2 table with nch
// spectral channels. Fixed repeat-count columns (TFORM nD, nL) scan
// into fixed-size arrays; a slice destination would be read as a
// variable-length descriptor.
func vis2RowType(nch int) reflect.Type {
	return reflect.StructOf([]reflect.StructField{
		{Name: "U", Type: scalarF64, Tag: `fits:"UCOORD"`},
		{Name: "V", Type: scalarF64, Tag: `fits:"VCOORD"`},
		{Name: "Data", Type: reflect.ArrayOf(nch, scalarF64), Tag: `fits:"VIS2DATA"`},
		{Name: "Err", Type: reflect.ArrayOf(nch, scalarF64), Tag: `fits:"VIS2ERR"`},
		{Name: "Flag", Type: reflect.ArrayOf(nch, scalarBool), Tag: `fits:"FLAG"`},
	})
}

// t3RowType builds the scan destination for an OI_T3 table.
func t3RowType(nch int) reflect.Type {
	return reflect.StructOf([]reflect.StructField{
		{Name: "U1", Type: scalarF64, Tag: `fits:"U1COORD"`},
		{Name: "V1", Type: scalarF64, Tag: `fits:"V1COORD"`},
		{Name: "U2", Type: scalarF64, Tag: `fits:"U2COORD"`},
		{Name: "V2", Type: scalarF64, Tag: `fits:"V2COORD"`},
		{Name: "Phase", Type: reflect.ArrayOf(nch, scalarF64), Tag: `fits:"T3PHI"`},
		{Name: "Err", Type: reflect.ArrayOf(nch, scalarF64), Tag: `fits:"T3PHIERR"`},
		{Name: "Flag", Type: reflect.ArrayOf(nch, scalarBool), Tag: `fits:"FLAG"`},
	})
}

// Load reads the OIFITS file at path.
func Load(path string) (*Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("oifits: open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("oifits: read %s: %w", path, err)
	}

	return obs, nil
}

// Read parses an OIFITS stream: the OI_WAVELENGTH table plus all
// OI_VIS2 and OI_T3 binary tables. Flagged points are dropped.
func Read(r io.Reader) (*Observation, error) {
	fits, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("oifits: parse FITS: %w", err)
	}
	defer fits.Close()

	var (
		obs       Observation
		vis2Tbls  []*fitsio.Table
		t3Tbls    []*fitsio.Table
		foundData bool
	)

	for _, hdu := range fits.HDUs() {
		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			continue
		}

		switch extName(tbl) {
		case "OI_WAVELENGTH":
			if err := readWavelength(tbl, &obs); err != nil {
				return nil, err
			}
		case "OI_VIS2":
			vis2Tbls = append(vis2Tbls, tbl)
			foundData = true
		case "OI_T3":
			t3Tbls = append(t3Tbls, tbl)
			foundData = true
		}
	}

	if !foundData {
		return nil, ErrNoData
	}

	if len(obs.Channels) == 0 {
		return nil, ErrNoWavelength
	}

	for _, tbl := range vis2Tbls {
		if err := readVis2(tbl, &obs); err != nil {
			return nil, err
		}
	}

	for _, tbl := range t3Tbls {
		if err := readT3(tbl, &obs); err != nil {
			return nil, err
		}
	}

	return &obs, nil
}

func extName(tbl *fitsio.Table) string {
	card := tbl.Header().Get("EXTNAME")
	if card == nil {
		return ""
	}

	name, _ := card.Value.(string)

	return strings.TrimSpace(name)
}

// columnRepeat looks up a column by name and parses the repeat count of
// its TFORM value. The second return is false when the column is
// missing.
func columnRepeat(hdr *fitsio.Header, name string) (int, bool) {
	for i := 1; ; i++ {
		ttype := hdr.Get(fmt.Sprintf("TTYPE%d", i))
		if ttype == nil {
			return 0, false
		}

		n, _ := ttype.Value.(string)
		if strings.TrimSpace(n) != name {
			continue
		}

		form := hdr.Get(fmt.Sprintf("TFORM%d", i))
		if form == nil {
			return 0, false
		}
		s, _ := form.Value.(string)

		return repeatOf(s), true
	}
}

// repeatOf parses the leading repeat count of a TFORM value; a bare
// type letter means one element.
func repeatOf(form string) int {
	form = strings.TrimSpace(form)

	i := 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1
	}

	n, err := strconv.Atoi(form[:i])
	if err != nil {
		return 1
	}

	return n
}

// checkChannels verifies that every named column carries one element
// per spectral channel.
func checkChannels(tbl *fitsio.Table, ext string, nch int, cols ...string) error {
	for _, name := range cols {
		repeat, ok := columnRepeat(tbl.Header(), name)
		if !ok {
			return fmt.Errorf("oifits: %s: missing column %s", ext, name)
		}
		if repeat != nch {
			return fmt.Errorf("%w: %s column %s has %d channels, OI_WAVELENGTH has %d",
				ErrChannelMismatch, ext, name, repeat, nch)
		}
	}

	return nil
}

func readWavelength(tbl *fitsio.Table, obs *Observation) error {
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return fmt.Errorf("oifits: read OI_WAVELENGTH: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row waveRow
		if err := rows.Scan(&row); err != nil {
			return fmt.Errorf("oifits: scan OI_WAVELENGTH: %w", err)
		}

		obs.Channels = append(obs.Channels, Channel{
			Wave: float64(row.Wave),
			Band: float64(row.Band),
		})
	}

	return rows.Err()
}

func readVis2(tbl *fitsio.Table, obs *Observation) error {
	nch := len(obs.Channels)
	if err := checkChannels(tbl, "OI_VIS2", nch, "VIS2DATA", "VIS2ERR", "FLAG"); err != nil {
		return err
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return fmt.Errorf("oifits: read OI_VIS2: %w", err)
	}
	defer rows.Close()

	rowType := vis2RowType(nch)

	for rows.Next() {
		row := reflect.New(rowType)
		if err := rows.Scan(row.Interface()); err != nil {
			return fmt.Errorf("oifits: scan OI_VIS2: %w", err)
		}

		v := row.Elem()
		u := v.Field(0).Float()
		vv := v.Field(1).Float()
		data, errs, flags := v.Field(2), v.Field(3), v.Field(4)

		for k, ch := range obs.Channels {
			if flags.Index(k).Bool() {
				continue
			}

			obs.Vis2 = append(obs.Vis2, Vis2{
				U: u, V: vv,
				Wave: ch.Wave, Band: ch.Band,
				Value: data.Index(k).Float(),
				Err:   errs.Index(k).Float(),
			})
		}
	}

	return rows.Err()
}

func readT3(tbl *fitsio.Table, obs *Observation) error {
	nch := len(obs.Channels)
	if err := checkChannels(tbl, "OI_T3", nch, "T3PHI", "T3PHIERR", "FLAG"); err != nil {
		return err
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return fmt.Errorf("oifits: read OI_T3: %w", err)
	}
	defer rows.Close()

	rowType := t3RowType(nch)

	for rows.Next() {
		row := reflect.New(rowType)
		if err := rows.Scan(row.Interface()); err != nil {
			return fmt.Errorf("oifits: scan OI_T3: %w", err)
		}

		v := row.Elem()
		u1, v1 := v.Field(0).Float(), v.Field(1).Float()
		u2, v2 := v.Field(2).Float(), v.Field(3).Float()
		phase, errs, flags := v.Field(4), v.Field(5), v.Field(6)

		for k, ch := range obs.Channels {
			if flags.Index(k).Bool() {
				continue
			}

			obs.T3 = append(obs.T3, T3{
				U1: u1, V1: v1,
				U2: u2, V2: v2,
				Wave: ch.Wave, Band: ch.Band,
				Phase: phase.Index(k).Float(),
				Err:   errs.Index(k).Float(),
			})
		}
	}

	return rows.Err()
}
