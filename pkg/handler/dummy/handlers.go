package dummy

import (
	"fmt"
	"sort"

	"conflux/pkg/handler"
	"conflux/pkg/util/context"
	"conflux/pkg/util/maps"

	"github.com/pkg/errors"
)

type recordsConfig struct {
	Count  int                    `json:"count"`
	Fields map[string]interface{} `json:"fields"`
}

// extractRecords generates `count` records, each with an `id` field and the configured static fields.
func extractRecords(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	var c recordsConfig
	if err := maps.Decode(config, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode records config")
	}
	records := make([]handler.Record, c.Count)
	for i := range records {
		r := handler.Record{"id": i + 1}
		for k, v := range c.Fields {
			r[k] = v
		}
		records[i] = r
	}
	ctx.Logger().Debugf("extracted %d records", len(records))
	return records, nil
}

// extractSource returns the pipeline source as is.
func extractSource(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("pipeline has no source")
	}
	return source, nil
}

func passthrough(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	return input, nil
}

type selectConfig struct {
	Fields []string `json:"fields"`
}

// selectFields keeps only the configured fields of each record.
func selectFields(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	var c selectConfig
	if err := maps.Decode(config, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode select config")
	}
	records, err := toRecords(input)
	if err != nil {
		return nil, err
	}
	res := make([]handler.Record, len(records))
	for i, r := range records {
		selected := handler.Record{}
		for _, f := range c.Fields {
			if v, ok := r[f]; ok {
				selected[f] = v
			}
		}
		res[i] = selected
	}
	return res, nil
}

type countingConfig struct {
	Destination string `json:"destination"`
}

// countingLoad pretends to write the input records and reports how many it saw.
func countingLoad(ctx context.Context, config map[string]interface{}, input interface{}) (handler.LoadOutcome, error) {
	if err := prepare(ctx, config); err != nil {
		return handler.LoadOutcome{}, err
	}
	var c countingConfig
	if err := maps.Decode(config, &c); err != nil {
		return handler.LoadOutcome{}, errors.Wrap(err, "cannot decode counting config")
	}
	records, err := toRecords(input)
	if err != nil {
		return handler.LoadOutcome{}, err
	}
	ctx.Logger().Infof("loaded %d records into %s", len(records), c.Destination)
	return handler.LoadOutcome{
		Destination:    c.Destination,
		ProcessedCount: int64(len(records)),
	}, nil
}

type requiredConfig struct {
	Fields []string `json:"fields"`
}

// requiredFields checks every record holds the configured fields.
func requiredFields(ctx context.Context, config map[string]interface{}, input interface{}) (handler.ValidationOutcome, error) {
	if err := prepare(ctx, config); err != nil {
		return handler.ValidationOutcome{}, err
	}
	var c requiredConfig
	if err := maps.Decode(config, &c); err != nil {
		return handler.ValidationOutcome{}, errors.Wrap(err, "cannot decode required config")
	}
	records, err := toRecords(input)
	if err != nil {
		return handler.ValidationOutcome{}, err
	}
	outcome := handler.ValidationOutcome{
		Valid:          true,
		ProcessedCount: int64(len(records)),
	}
	for i, r := range records {
		for _, f := range c.Fields {
			if _, ok := r[f]; !ok {
				outcome.Valid = false
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("record %d: missing field %s", i, f))
			}
		}
	}
	return outcome, nil
}

type staticConfig struct {
	Fields map[string]interface{} `json:"fields"`
}

// staticFields adds the configured fields to every record, overwriting existing values.
func staticFields(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	var c staticConfig
	if err := maps.Decode(config, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode static config")
	}
	records, err := toRecords(input)
	if err != nil {
		return nil, err
	}
	res := make([]handler.Record, len(records))
	for i, r := range records {
		enriched := handler.Record{}
		for k, v := range r {
			enriched[k] = v
		}
		for k, v := range c.Fields {
			enriched[k] = v
		}
		res[i] = enriched
	}
	return res, nil
}

// merge concatenates the records of every input, ordered by stage id.
func merge(ctx context.Context, config map[string]interface{}, inputs map[string]interface{}) (interface{}, error) {
	if err := prepare(ctx, config); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var res []handler.Record
	for _, id := range ids {
		records, err := toRecords(inputs[id])
		if err != nil {
			return nil, errors.Wrapf(err, "cannot merge output of stage %s", id)
		}
		res = append(res, records...)
	}
	return res, nil
}
