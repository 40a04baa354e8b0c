package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/model"
)

// readJSON reads a bounded request body and checks it is a JSON object.
func readJSON(w http.ResponseWriter, r *http.Request) (gjson.Result, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("body is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return gjson.Result{}, errors.New("body must be a JSON object")
	}
	return doc, nil
}

// rawScore turns one JSON score value into the raw text the engine parses.
// Numbers keep their literal form so "1200" and 1200 behave the same; null
// means no score.
func rawScore(v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.String:
		return v.Str, nil
	case gjson.Number:
		return v.Raw, nil
	case gjson.Null:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported score value %s", v.Raw)
	}
}

// decodeScoreTable reads {category: value} into a raw score map.
func decodeScoreTable(table gjson.Result) (map[string]string, error) {
	if !table.IsObject() {
		return nil, errors.New("scores must be an object")
	}
	out := map[string]string{}
	var err error
	table.ForEach(func(key, value gjson.Result) bool {
		var raw string
		if raw, err = rawScore(value); err != nil {
			err = fmt.Errorf("category %q: %w", key.String(), err)
			return false
		}
		out[key.String()] = raw
		return true
	})
	return out, err
}

// decodeSheet reads a POST /sheets body. A missing submission_id gets a
// fresh UUID and a missing ts means now.
func decodeSheet(doc gjson.Result, now time.Time) (model.Sheet, error) {
	scores, err := decodeScoreTable(doc.Get("scores"))
	if err != nil {
		return model.Sheet{}, err
	}

	sheet := model.Sheet{
		SubmissionID: strings.TrimSpace(doc.Get("submission_id").String()),
		CompetitorID: strings.TrimSpace(doc.Get("competitor_id").String()),
		Scores:       scores,
		TS:           now,
	}
	if sheet.SubmissionID == "" {
		sheet.SubmissionID = uuid.NewString()
	}
	if ts := doc.Get("ts"); ts.Exists() {
		parsed, err := time.Parse(time.RFC3339, ts.String())
		if err != nil {
			return model.Sheet{}, errors.New("invalid ts; must be RFC3339")
		}
		sheet.TS = parsed
	}
	return sheet, sheet.Validate()
}

// decodeSnapshot reads {scores: {competitor: {category: value}}}.
func decodeSnapshot(doc gjson.Result) (assignment.Scores, error) {
	table := doc.Get("scores")
	if !table.IsObject() {
		return nil, errors.New("scores must be an object of competitors")
	}
	out := assignment.Scores{}
	var err error
	table.ForEach(func(competitor, sheet gjson.Result) bool {
		var scores map[string]string
		if scores, err = decodeScoreTable(sheet); err != nil {
			err = fmt.Errorf("competitor %q: %w", competitor.String(), err)
			return false
		}
		out[competitor.String()] = scores
		return true
	})
	return out, err
}
