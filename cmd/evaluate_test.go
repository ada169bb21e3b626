package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"damage-control-bot/internal/domain/entity"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunEvaluate_Covered(t *testing.T) {
	dir := t.TempDir()
	opts := &evaluateOptions{
		detectionsPath: writeFile(t, dir, "det.json", `{"detections":[
			{"class":"bumper","confidence":0.8,"bbox":{"x1":0,"y1":0,"x2":100,"y2":50}},
			{"class":"bumper","confidence":0.6,"bbox":{"x1":2,"y1":1,"x2":101,"y2":50}}
		]}`),
		contractPath: writeFile(t, dir, "contrat.txt", "Formule TOUS RISQUES\nFranchise : 200 €"),
		damageType:   "accident",
		iouThreshold: 0.5,
	}

	decision, err := runEvaluate(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, decision.Covered)
	require.Equal(t, 640.0, decision.EstimatedDamage)
	require.Equal(t, 440.0, decision.Reimbursement)
	require.Equal(t, 1, decision.DetectedParts)
}

func TestRunEvaluate_DepthFallback(t *testing.T) {
	dir := t.TempDir()
	opts := &evaluateOptions{
		detectionsPath: writeFile(t, dir, "det.json", `[]`),
		depthPath:      writeFile(t, dir, "depth.json", `{"stats":{"min_depth":0,"max_depth":30,"mean_depth":10,"std_depth":1}}`),
		contractPath:   writeFile(t, dir, "contrat.txt", "Garantie tous risques"),
		damageType:     "vandalism",
		iouThreshold:   0.5,
	}

	decision, err := runEvaluate(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, decision.DepthFallback)
	require.Equal(t, 250.0, decision.EstimatedDamage)
}

func TestRunEvaluate_Errors(t *testing.T) {
	dir := t.TempDir()
	det := writeFile(t, dir, "det.json", `[]`)
	contract := writeFile(t, dir, "c.txt", "Franchise: 100 €")

	_, err := runEvaluate(context.Background(), &evaluateOptions{detectionsPath: det, contractPath: contract, damageType: "fire", iouThreshold: 0})
	require.Error(t, err)

	_, err = runEvaluate(context.Background(), &evaluateOptions{detectionsPath: det, contractPath: filepath.Join(dir, "missing.txt"), damageType: "fire", iouThreshold: 0.5})
	require.Error(t, err)

	_, err = runEvaluate(context.Background(), &evaluateOptions{detectionsPath: det, contractPath: contract, iouThreshold: 0.5})
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, &entity.Decision{Covered: true, Reason: "ok <1>"}))
	require.Contains(t, buf.String(), "ok <1>")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, true, decoded["covered"])
	require.Nil(t, decoded["cap"])
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["serve"])
	require.True(t, names["evaluate"])
}
