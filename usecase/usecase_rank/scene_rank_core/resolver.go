package scene_rank_core

import "github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"

// Infer 根据账本中已有的比较链推断 a、b 的胜负。
// a 能沿 胜者->败者 边到达 b 时返回 a，反之返回 b，都不能到达时 ok 为 false。
func Infer(a, b scene_rank_models.Song, ledger *Ledger) (scene_rank_models.Song, bool) {
	graph := ledger.outcomeGraph()
	if len(graph) == 0 {
		return scene_rank_models.Song{}, false
	}
	if reaches(graph, a.ID, b.ID) {
		return a, true
	}
	if reaches(graph, b.ID, a.ID) {
		return b, true
	}
	return scene_rank_models.Song{}, false
}

// reaches 广度优先搜索，visited 保证有环时也能终止
func reaches(graph map[string][]string, from, to string) bool {
	if from == to {
		return false
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range graph[current] {
			if next == to {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}
