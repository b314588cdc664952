// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one analysis of an input, as recorded in a Store
type Run struct {
	ID        uint `gorm:"primaryKey"`
	Input     string
	CreatedAt time.Time
	Findings  []FindingRecord
}

// FindingRecord is a finding as recorded in a Store. Its columns mirror the JSON fields of the report.
type FindingRecord struct {
	ID          uint `gorm:"primaryKey"`
	RunID       uint `gorm:"index"`
	Variable    string
	Contract    string `gorm:"index"`
	Slot        uint64
	SlotHex     string
	Offset      int
	TaintSource string
	Function    string
	EntryPoint  string
}

// Store records the findings of successive runs in a SQLite database
type Store struct {
	db *gorm.DB
}

// OpenStore opens, and creates if needed, the SQLite database at dbPath
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open findings database %s: %w", dbPath, err)
	}
	if err := db.AutoMigrate(&Run{}, &FindingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate findings database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save records a run on input with its findings and returns the run
func (s *Store) Save(input string, findings []taint.Finding) (*Run, error) {
	run := &Run{Input: input}
	for _, f := range findings {
		j := ToJSON(f)
		run.Findings = append(run.Findings, FindingRecord{
			Variable:    j.Variable,
			Contract:    j.Contract,
			Slot:        j.Slot,
			SlotHex:     j.SlotHex,
			Offset:      j.Offset,
			TaintSource: j.TaintSource,
			Function:    j.Function,
			EntryPoint:  j.EntryPoint,
		})
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to save run on %s: %w", input, err)
	}
	return run, nil
}

// LastRun returns the most recent run on input with its findings, or nil if input was never analyzed
func (s *Store) LastRun(input string) (*Run, error) {
	var runs []Run
	err := s.db.Preload("Findings").Where("input = ?", input).Order("id desc").Limit(1).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query runs on %s: %w", input, err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// NewVariables returns the canonical names of the variables reported in run that were not reported in prev. All
// the variables of run are new when prev is nil.
func NewVariables(prev *Run, run *Run) []string {
	seen := map[string]bool{}
	if prev != nil {
		for _, f := range prev.Findings {
			seen[f.Contract+":"+f.Variable] = true
		}
	}
	var res []string
	for _, f := range run.Findings {
		if !seen[f.Contract+":"+f.Variable] {
			res = append(res, f.Variable)
		}
	}
	return res
}
