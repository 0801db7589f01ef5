package protocol

import "errors"

// DecodeAll decodes raws in order and stops at the first failure, which is
// returned as a *BatchError carrying the input index.
func (d *Decoder) DecodeAll(raws [][]byte) ([]Record, error) {
	out := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := d.Decode(raw)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeAllHex is DecodeAll for hex strings.
func (d *Decoder) DecodeAllHex(hexes []string) ([]Record, error) {
	out := make([]Record, 0, len(hexes))
	for i, s := range hexes {
		rec, err := d.DecodeHex(s)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeAllCollect decodes every element. Successful records keep input
// order; failures are joined into one error of *BatchError values.
func (d *Decoder) DecodeAllCollect(raws [][]byte) ([]Record, error) {
	out := make([]Record, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		rec, err := d.Decode(raw)
		if err != nil {
			errs = append(errs, &BatchError{Index: i, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}
