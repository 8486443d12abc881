package components

import rl "github.com/gen2brain/raylib-go/raylib"

// Scene data arrives from YAML or JSON decoders, so numbers may be any of
// the decoder's numeric types and vectors may be lists or {x,y,z} maps.

func floatProp(data map[string]any, key string) (float32, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return 0, false
}

func boolProp(data map[string]any, key string) (bool, bool) {
	b, ok := data[key].(bool)
	return b, ok
}

func stringProp(data map[string]any, key string) (string, bool) {
	s, ok := data[key].(string)
	return s, ok
}

func vec3Prop(data map[string]any, key string) (rl.Vector3, bool) {
	v, ok := data[key]
	if !ok {
		return rl.Vector3{}, false
	}
	return toVec3(v)
}

func toVec3(v any) (rl.Vector3, bool) {
	switch vec := v.(type) {
	case rl.Vector3:
		return vec, true
	case []float32:
		if len(vec) == 3 {
			return rl.Vector3{X: vec[0], Y: vec[1], Z: vec[2]}, true
		}
	case []any:
		if len(vec) != 3 {
			return rl.Vector3{}, false
		}
		var out [3]float32
		for i, e := range vec {
			f, ok := toFloat(e)
			if !ok {
				return rl.Vector3{}, false
			}
			out[i] = f
		}
		return rl.Vector3{X: out[0], Y: out[1], Z: out[2]}, true
	case map[string]any:
		x, okx := floatProp(vec, "x")
		y, oky := floatProp(vec, "y")
		z, okz := floatProp(vec, "z")
		if okx && oky && okz {
			return rl.Vector3{X: x, Y: y, Z: z}, true
		}
	}
	return rl.Vector3{}, false
}

func vec3List(v rl.Vector3) []float32 {
	return []float32{v.X, v.Y, v.Z}
}
