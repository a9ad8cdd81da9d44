package summary

import (
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/aymerick/raymond"
)

//go:embed templates/digest.hbs
var digestSource string

var digestTemplate = raymond.MustParse(digestSource)

// Title is the notification title for rig
func Title(rig string) string {
	return rig + " Daily Summary"
}

// Render formats a digest and miners list as the plain-text notification body
func Render(d Digest, miners []Miner) (string, error) {
	ctx := map[string]interface{}{
		"host":        d.Host,
		"uptime":      d.Uptime,
		"minerStatus": d.MinerStatus,
		"hashrate":    strconv.FormatFloat(d.Hashrate, 'f', 1, 64),
		"memoryUsed":  strconv.FormatUint(d.MemoryUsedMB, 10),
		"memoryTotal": strconv.FormatUint(d.MemoryTotalMB, 10),
		"load":        fmt.Sprintf("%.2f %.2f %.2f", d.LoadAverage[0], d.LoadAverage[1], d.LoadAverage[2]),
	}
	if d.CPUTemperatureCelsius != nil {
		ctx["temperature"] = strconv.FormatFloat(*d.CPUTemperatureCelsius, 'f', 1, 64)
	}
	if d.Timestamp != nil {
		ctx["timestamp"] = d.Timestamp.Format(time.RFC3339)
	} else {
		ctx["timestamp"] = "never"
	}
	if len(miners) > 0 {
		list := make([]map[string]string, 0, len(miners))
		for _, m := range miners {
			list = append(list, map[string]string{"name": m.Name, "pool": m.Pool})
		}
		ctx["miners"] = list
	}

	out, err := digestTemplate.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return out, nil
}
