package sweep

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// WriteJSON writes every record, finished and failed, as a JSON
// array.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes finished records as a flat table for downstream
// analysis. Failed runs are skipped; their errors are in the JSON
// output.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	header := []string{
		"run_name", "alpha", "likelihood_cov_prefactor", "dynamics", "repeat",
		"adjusted_rand_index", "reconstruction_error",
		"num_inferred_clusters", "num_true_clusters", "runtime",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if rec.State != StateFinished {
			continue
		}
		row := []string{
			rec.Name,
			strconv.FormatFloat(rec.Alpha, 'g', -1, 64),
			strconv.FormatFloat(rec.SigmaSq, 'g', -1, 64),
			rec.Dynamics,
			strconv.Itoa(rec.Repeat),
			strconv.FormatFloat(rec.ARI, 'g', -1, 64),
			strconv.FormatFloat(rec.ReconstructionError, 'g', -1, 64),
			strconv.Itoa(rec.NumInferredClusters),
			strconv.Itoa(rec.NumTrueClusters),
			strconv.FormatFloat(rec.Runtime, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
