package server

import "fmt"

// Food is one pellet on the field.
type Food struct {
	ID       string  `json:"id"`
	Position GridPos `json:"position"`
}

func (w *World) foodAt(pos GridPos) (int, bool) {
	for i, f := range w.foods {
		if f.Position.Equals(pos) {
			return i, true
		}
	}
	return -1, false
}

// seedFood clears the field and places the configured number of pellets.
func (w *World) seedFood() {
	w.foods = nil
	for i := 0; i < w.cfg.FoodCount; i++ {
		w.spawnFood()
	}
}

// spawnFood places one pellet on a free cell. A board with no room simply
// drops the pellet; the count recovers as cells open up.
func (w *World) spawnFood() (Food, bool) {
	pos, ok := randomFreeCell(w.cfg.GridCols, w.cfg.GridRows, w.placementBlocked(), w.foodRNG)
	if !ok {
		return Food{}, false
	}
	w.nextFoodSeq++
	food := Food{ID: fmt.Sprintf("food-%d", w.nextFoodSeq), Position: pos}
	w.foods = append(w.foods, food)
	w.journal.Append(Patch{
		Kind:     PatchFoodSpawned,
		Tick:     w.tick,
		EntityID: food.ID,
		Payload:  FoodSpawnedPayload{Position: food.Position},
	})
	return food, true
}

// consumeFoodAt removes the pellet at pos, if any.
func (w *World) consumeFoodAt(pos GridPos) (Food, bool) {
	idx, ok := w.foodAt(pos)
	if !ok {
		return Food{}, false
	}
	food := w.foods[idx]
	w.foods = append(w.foods[:idx], w.foods[idx+1:]...)
	return food, true
}
