/*
 * Copyright 2022 The FlowSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"github.com/mohae/deepcopy"

	"github.com/flowsql/flowsql/types"
)

// Stage is one schedulable fragment of a query plan. Its root subtree ends
// at exchange boundaries; the cut-off subtrees become child stages whose
// output the exchange operators pull.
type Stage struct {
	ID       uint32
	Root     *types.PlanNode
	Children []uint32
	// Single marks the terminal fan-in stage, which must run as exactly
	// one task so the query has one result location.
	Single bool
}

// StageGraph is the fragmented form of one query plan.
type StageGraph struct {
	RootID uint32
	Stages map[uint32]*Stage

	nextID uint32
}

// Fragment splits a plan into a stage graph at its exchange boundaries. The
// plan itself is left untouched; stages operate on a deep copy so the
// scheduler can fill exchange sources in place.
func Fragment(plan *types.PlanNode) (g *StageGraph, err error) {
	if plan == nil {
		err = ErrEmptyPlan
		return
	}
	g = &StageGraph{
		Stages: make(map[uint32]*Stage),
	}
	root := deepcopy.Copy(plan).(*types.PlanNode)
	g.RootID = g.buildStage(root)
	g.Stages[g.RootID].Single = true
	return
}

func (g *StageGraph) buildStage(root *types.PlanNode) (id uint32) {
	id = g.nextID
	g.nextID++
	stage := &Stage{ID: id, Root: root}
	g.Stages[id] = stage
	g.cutExchanges(stage, root)
	return
}

func (g *StageGraph) cutExchanges(stage *Stage, node *types.PlanNode) {
	if node.Kind == types.ExchangePlan && len(node.Children) == 1 {
		input := node.Children[0]
		node.Children = nil
		childID := g.buildStage(input)
		node.Exchange.SourceStageID = childID
		stage.Children = append(stage.Children, childID)
		return
	}
	for _, c := range node.Children {
		g.cutExchanges(stage, c)
	}
}

// ScheduleOrder returns the stage ids children-first, so every stage is
// placed after the stages it pulls from.
func (g *StageGraph) ScheduleOrder() (order []uint32) {
	var visit func(id uint32)
	visit = func(id uint32) {
		for _, child := range g.Stages[id].Children {
			visit(child)
		}
		order = append(order, id)
	}
	visit(g.RootID)
	return
}
