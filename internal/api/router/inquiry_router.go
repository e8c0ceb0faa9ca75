package router

import (
	"net/http"

	"dealer-support-chat/internal/api"
	"dealer-support-chat/internal/api/endpoints"
	"dealer-support-chat/internal/api/middleware"
)

// InquiryRoutes registers the customer chat flow and the staff dashboard
// routes. Staff routes sit behind the agent token middleware when enabled.
func InquiryRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		e := endpoints.NewInquiryEndpoints(s.Inquiries(), prefix)
		admin := s.AgentAuth()

		mux.HandleFunc(prefix+"/register", s.MakeHTTPHandleFunc(e.Register))
		mux.HandleFunc(prefix+"/message", s.MakeHTTPHandleFunc(e.Message))
		mux.HandleFunc(prefix+"/my-inquiries", s.MakeHTTPHandleFunc(e.MyInquiries))
		mux.HandleFunc(prefix+"/after-hours-inquiry", s.MakeHTTPHandleFunc(e.AfterHours))

		var deleteOnly []middleware.Middleware
		for _, m := range admin {
			deleteOnly = append(deleteOnly, middleware.ForMethods(m, http.MethodDelete))
		}
		mux.HandleFunc(prefix+"/messages/", s.MakeHTTPHandleFunc(e.Messages, deleteOnly...))

		mux.HandleFunc(prefix+"/inquiries", s.MakeHTTPHandleFunc(e.Inquiries, admin...))
		mux.HandleFunc(prefix+"/inquiries/", s.MakeHTTPHandleFunc(e.Inquiry, admin...))
		mux.HandleFunc(prefix+"/reply", s.MakeHTTPHandleFunc(e.Reply, admin...))
		mux.HandleFunc(prefix+"/assign", s.MakeHTTPHandleFunc(e.Assign, admin...))
		mux.HandleFunc(prefix+"/unassign", s.MakeHTTPHandleFunc(e.Unassign, admin...))
		mux.HandleFunc(prefix+"/status", s.MakeHTTPHandleFunc(e.Status, admin...))
	}
}

func HoursRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		e := endpoints.NewHoursEndpoints(s.Calendar(), s.Now)
		mux.HandleFunc(prefix+"/business-hours", s.MakeHTTPHandleFunc(e.BusinessHours))
	}
}
