package logic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cycle messages arrive as a single textual line from the planner:
//
//	CYCLE <NS|EW> <nsGreenMs> <ewGreenMs> <amberMs> <allRedMs>
//
// e.g. "CYCLE NS 9000 7000 2000 1000".
const cycleKeyword = "CYCLE"

// ParseCycle decodes a planner payload into a Cycle. A malformed payload
// (wrong token count, unknown order, non-numeric or negative durations) is
// rejected with an error and must never reach the controller.
func ParseCycle(payload string) (Cycle, error) {
	fields := strings.Fields(payload)
	if len(fields) != 6 {
		return Cycle{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	if fields[0] != cycleKeyword {
		return Cycle{}, fmt.Errorf("expected %q keyword, got %q", cycleKeyword, fields[0])
	}

	var order Order
	switch Order(fields[1]) {
	case OrderNS:
		order = OrderNS
	case OrderEW:
		order = OrderEW
	default:
		return Cycle{}, fmt.Errorf("unknown order %q", fields[1])
	}

	ms := make([]time.Duration, 4)
	for i, f := range fields[2:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Cycle{}, fmt.Errorf("duration field %d: %q is not a number", i+1, f)
		}
		if v < 0 {
			return Cycle{}, fmt.Errorf("duration field %d: %d is negative", i+1, v)
		}
		ms[i] = time.Duration(v) * time.Millisecond
	}

	return Cycle{
		Order:   order,
		NSGreen: ms[0],
		EWGreen: ms[1],
		Amber:   ms[2],
		AllRed:  ms[3],
	}, nil
}
