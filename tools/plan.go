package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// stepStatus is the lifecycle of one plan step.
type stepStatus string

const (
	stepStatusPending    stepStatus = "pending"
	stepStatusInProgress stepStatus = "in_progress"
	stepStatusDone       stepStatus = "done"
	stepStatusBlocked    stepStatus = "blocked"
)

func validStepStatus(s string) bool {
	switch stepStatus(s) {
	case stepStatusPending, stepStatusInProgress, stepStatusDone, stepStatusBlocked:
		return true
	}
	return false
}

type planStep struct {
	Text   string     `json:"text"`
	Status stepStatus `json:"status"`
}

type planRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Steps     []planStep `json:"steps"`
	CreatedAt string     `json:"created_at"`
}

var planMu sync.Mutex

func plansDir(configDir string) string {
	return filepath.Join(configDir, "plans")
}

func planFilePath(configDir, id string) string {
	return filepath.Join(plansDir(configDir), id+".json")
}

func loadPlan(configDir, id string) (planRecord, error) {
	var rec planRecord
	data, err := os.ReadFile(planFilePath(configDir, id))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// savePlan atomically rewrites the plan's file via a temp-file-rename,
// matching the store discipline in tools/memory.go.
func savePlan(configDir string, rec planRecord) error {
	if err := os.MkdirAll(plansDir(configDir), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	path := planFilePath(configDir, rec.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func listPlanFiles(configDir string) ([]string, error) {
	entries, err := os.ReadDir(plansDir(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
		}
	}
	return ids, nil
}

// planTool dispatches on args.action the way the other multi-action tools
// (tmux, mcp) do, rather than registering one registry entry per verb.
func planTool(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	action := argString(args, "action")

	planMu.Lock()
	defer planMu.Unlock()

	switch action {
	case "create":
		title := argString(args, "title")
		if title == "" {
			return errMap("title is required")
		}
		rec := planRecord{ID: uuid.NewString(), Title: title, CreatedAt: nowRFC3339()}
		if stepsRaw, ok := args["steps"].([]any); ok {
			for _, s := range stepsRaw {
				if text, ok := s.(string); ok {
					rec.Steps = append(rec.Steps, planStep{Text: text, Status: stepStatusPending})
				}
			}
		}
		if err := savePlan(tctx.ConfigDir, rec); err != nil {
			return errMap(err.Error())
		}
		return planToMap(rec)

	case "get":
		id := argString(args, "id")
		if id == "" {
			return errMap("id is required")
		}
		rec, err := loadPlan(tctx.ConfigDir, id)
		if err != nil {
			return errMap(fmt.Sprintf("no plan with id %q", id))
		}
		return planToMap(rec)

	case "list":
		ids, err := listPlanFiles(tctx.ConfigDir)
		if err != nil {
			return errMap(err.Error())
		}
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			rec, err := loadPlan(tctx.ConfigDir, id)
			if err != nil {
				continue
			}
			out = append(out, planToMap(rec))
		}
		return map[string]any{"plans": out}

	case "delete":
		id := argString(args, "id")
		if id == "" {
			return errMap("id is required")
		}
		if err := os.Remove(planFilePath(tctx.ConfigDir, id)); err != nil {
			return errMap(fmt.Sprintf("no plan with id %q", id))
		}
		return map[string]any{"deleted": id}

	case "add_step":
		id := argString(args, "id")
		text := argString(args, "text")
		if id == "" || text == "" {
			return errMap("id and text are required")
		}
		rec, err := loadPlan(tctx.ConfigDir, id)
		if err != nil {
			return errMap(fmt.Sprintf("no plan with id %q", id))
		}
		rec.Steps = append(rec.Steps, planStep{Text: text, Status: stepStatusPending})
		if err := savePlan(tctx.ConfigDir, rec); err != nil {
			return errMap(err.Error())
		}
		return planToMap(rec)

	case "update_step":
		id := argString(args, "id")
		newStatus := argString(args, "status")
		if id == "" || newStatus == "" {
			return errMap("id and status are required")
		}
		if !validStepStatus(newStatus) {
			return errMap("invalid step status: " + newStatus)
		}
		idx := argInt(args, "step", -1)
		rec, err := loadPlan(tctx.ConfigDir, id)
		if err != nil {
			return errMap(fmt.Sprintf("no plan with id %q", id))
		}
		if idx < 0 || idx >= len(rec.Steps) {
			return errMap(fmt.Sprintf("step index %d out of range", idx))
		}
		rec.Steps[idx].Status = stepStatus(newStatus)
		if err := savePlan(tctx.ConfigDir, rec); err != nil {
			return errMap(err.Error())
		}
		return planToMap(rec)

	default:
		return errMap("unknown plan action: " + action)
	}
}

func planToMap(rec planRecord) map[string]any {
	steps := make([]map[string]any, 0, len(rec.Steps))
	for _, s := range rec.Steps {
		steps = append(steps, map[string]any{"text": s.Text, "status": string(s.Status)})
	}
	return map[string]any{
		"id":         rec.ID,
		"title":      rec.Title,
		"steps":      steps,
		"created_at": rec.CreatedAt,
	}
}
