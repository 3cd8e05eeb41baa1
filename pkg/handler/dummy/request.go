package dummy

import (
	"time"

	"conflux/pkg/handler"
	"conflux/pkg/util/context"
	"conflux/pkg/util/maps"

	"github.com/pkg/errors"
)

// request holds the options common to every dummy handler.
type request struct {
	Error bool          `json:"error"`
	Delay time.Duration `json:"delay"`
}

// prepare decodes the common options, waits for the configured delay and fails if asked to.
// The delay is interrupted when ctx is done.
func prepare(ctx context.Context, config map[string]interface{}) error {
	var r request
	if err := maps.Decode(config, &r); err != nil {
		return errors.Wrap(err, "cannot decode handler config")
	}

	if r.Delay > 0 {
		ctx.Logger().Debugf("sleeping for %s", r.Delay)
		t := time.NewTimer(r.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "interrupted while sleeping")
		}
	}

	if r.Error {
		return errors.New("dummy error")
	}
	return nil
}

// toRecords converts a stage output into a list of records.
func toRecords(in interface{}) ([]handler.Record, error) {
	switch v := in.(type) {
	case nil:
		return nil, nil
	case []handler.Record:
		return v, nil
	case []map[string]interface{}:
		res := make([]handler.Record, len(v))
		for i, m := range v {
			res[i] = m
		}
		return res, nil
	case []interface{}:
		res := make([]handler.Record, len(v))
		for i, e := range v {
			switch m := e.(type) {
			case map[string]interface{}:
				res[i] = m
			case handler.Record:
				res[i] = m
			default:
				return nil, errors.Errorf("element %d is %T, not a record", i, e)
			}
		}
		return res, nil
	}
	return nil, errors.Errorf("input %T is not a list of records", in)
}
