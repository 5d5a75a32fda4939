package api

import (
	"net/http"
	"strconv"

	"gdt-helper/internal/store"
)

// pathID：读取路径参数并转为数值 ID；非法时写 400
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func handleProjectList(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := st.ListProjects(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		out := make([]projectResult, 0, len(ps))
		for i := range ps {
			out = append(out, toProjectResult(&ps[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleProjectCreate(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in projectPayload
		if !readJSON(w, r, &in) {
			return
		}
		if in.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		if in.Units != "" && in.Units != "mm" && in.Units != "in" {
			writeError(w, http.StatusBadRequest, "units must be mm or in")
			return
		}
		p := store.Project{Title: in.Title, Customer: in.Customer, Notes: in.Notes, Units: in.Units}
		if err := st.CreateProject(r.Context(), &p); err != nil {
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		writeJSON(w, http.StatusCreated, toProjectResult(&p))
	}
}

func handleProjectGet(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		p, err := st.GetProject(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeJSON(w, http.StatusOK, toProjectResult(p))
	}
}

func handleProjectUpdate(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		cur, err := st.GetProject(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if cur == nil {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		var in projectPayload
		if !readJSON(w, r, &in) {
			return
		}
		if in.Title != "" {
			cur.Title = in.Title
		}
		cur.Customer = in.Customer
		cur.Notes = in.Notes
		if in.Units != "" {
			if in.Units != "mm" && in.Units != "in" {
				writeError(w, http.StatusBadRequest, "units must be mm or in")
				return
			}
			cur.Units = in.Units
		}
		if _, err := st.UpdateProject(r.Context(), cur); err != nil {
			writeError(w, http.StatusInternalServerError, "update failed")
			return
		}
		writeJSON(w, http.StatusOK, toProjectResult(cur))
	}
}

func handleProjectDelete(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deleted, err := st.DeleteProject(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
