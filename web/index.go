package web

import "html/template"

var indexTmpl = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>AniVerse Chat - {{.Name}}</title>
  <script src="https://cdn.tailwindcss.com"></script>
  <style>
    body { background: linear-gradient(135deg, #1e1b4b 0%, #312e81 50%, #4c1d95 100%); min-height: 100vh }
    body.loading-state { opacity: .6; pointer-events: none }
    .loading { display:inline-block; width:16px; height:16px; border:2px solid rgba(255,255,255,.3); border-top-color:#fff; border-radius:50%; animation: spin 1s linear infinite; vertical-align: middle }
    @keyframes spin { to { transform: rotate(360deg) } }
    @keyframes slide-in { from { transform: translateX(12px); opacity: 0 } to { transform: none; opacity: 1 } }
    @keyframes fade-in { from { opacity: 0 } to { opacity: 1 } }
    .animate-slide-in { animation: slide-in .3s ease-out }
    .animate-fade-in { animation: fade-in .3s ease-out }
    .room-item.active { box-shadow: inset 3px 0 0 #c4b5fd }
    #newRoomName.error { box-shadow: 0 0 0 2px #ef4444 }
    #newRoomName.success { box-shadow: 0 0 0 2px #22c55e }
    .message-bubble { word-break: break-word; white-space: pre-wrap }
  </style>
</head>
<body>
  <div class="max-w-6xl mx-auto p-4 h-screen flex gap-4">
    <aside class="w-64 flex flex-col gap-4 bg-white/5 rounded-xl p-4">
      <div>
        <h3 class="text-xs uppercase tracking-wider text-gray-400 mb-2">Rooms</h3>
        {{index .El "roomsList"}}
        <div class="flex gap-2 mt-3">{{index .El "newRoomName"}}{{index .El "createRoomBtn"}}</div>
      </div>
      <div class="flex-1 overflow-y-auto">
        <h3 class="text-xs uppercase tracking-wider text-gray-400 mb-2">Online</h3>
        {{index .El "activeUsers"}}
      </div>
    </aside>
    <main class="flex-1 flex flex-col bg-white/5 rounded-xl overflow-hidden">
      <header class="flex items-center justify-between px-4 py-3 border-b border-white/10">
        {{index .El "currentRoom"}}
        {{index .El "roomUsers"}}
      </header>
      {{index .El "messagesContainer"}}
      {{index .El "typingIndicator"}}
      <div class="flex gap-2 p-4 border-t border-white/10">{{index .El "messageInput"}}{{index .El "sendBtn"}}</div>
    </main>
  </div>
  <script>
    const ids = ['createRoomBtn', 'sendBtn'];
    const inputs = ['messageInput', 'newRoomName'];
    let ws = null;

    function byId(id){ return id === 'body' ? document.body : document.getElementById(id) }

    function apply(p){
      if (p.op === 'play') { try { new Audio(p.value).play().catch(()=>{}) } catch(_) {} ; return }
      const el = byId(p.target);
      if (!el) return;
      switch (p.op) {
        case 'outer': el.outerHTML = p.html || ''; break;
        case 'inner': el.innerHTML = p.html || ''; break;
        case 'append': el.insertAdjacentHTML('beforeend', p.html || ''); break;
        case 'remove': el.remove(); break;
        case 'class':
          (p.add || []).forEach(c => el.classList.add(c));
          (p.remove || []).forEach(c => el.classList.remove(c));
          break;
        case 'classes': el.className = p.value || ''; break;
        case 'attr': el.setAttribute(p.name, p.value || ''); break;
        case 'value': el.value = p.value || ''; break;
        case 'prop': el[p.name] = !!p.on; break;
        case 'focus': el.focus(); break;
        case 'blur': el.blur(); break;
        case 'scroll': el.scrollTop = el.scrollHeight; break;
      }
    }

    function send(ev){
      if (ws && ws.readyState === 1) { try { ws.send(JSON.stringify(ev)) } catch(_) {} }
    }

    document.addEventListener('click', e => {
      const btn = e.target.closest('button');
      if (btn && ids.includes(btn.id)) { send({ type: 'click', target: btn.id }); return }
      const room = e.target.closest('.room-item');
      if (room) send({ type: 'click', target: room.id, room: room.dataset.room });
    });
    document.addEventListener('keypress', e => {
      const t = e.target;
      if (!inputs.includes(t.id) || e.isComposing || e.keyCode === 229) return;
      if (e.key === 'Enter' && !(t.id === 'messageInput' && e.shiftKey)) e.preventDefault();
      send({ type: 'keypress', target: t.id, key: e.key, shift: e.shiftKey, value: t.value });
    });
    document.addEventListener('input', e => {
      if (inputs.includes(e.target.id)) send({ type: 'input', target: e.target.id, value: e.target.value });
    });
    document.addEventListener('focusin', e => { if (inputs.includes(e.target.id)) send({ type: 'focus', target: e.target.id, value: e.target.value }) });
    document.addEventListener('focusout', e => { if (inputs.includes(e.target.id)) send({ type: 'blur', target: e.target.id, value: e.target.value }) });
    document.addEventListener('keydown', e => {
      if ((e.ctrlKey || e.metaKey) && e.key === 'k') e.preventDefault();
      if (e.key !== 'Escape' && !((e.ctrlKey || e.metaKey) && e.key === 'k')) return;
      const active = document.activeElement && document.activeElement.id;
      send({ type: 'keydown', key: e.key, ctrl: e.ctrlKey, meta: e.metaKey, active: active || '' });
    });

    function connect(){
      const proto = location.protocol === 'https:' ? 'wss' : 'ws';
      const base = location.pathname.endsWith('/') ? location.pathname : (location.pathname + '/');
      ws = new WebSocket(proto + '://' + location.host + base + 'ws');
      ws.onmessage = e => {
        try {
          const data = JSON.parse(e.data);
          if (Array.isArray(data)) {
            document.querySelectorAll('body > .notification').forEach(n => n.remove());
            data.forEach(apply);
          } else {
            apply(data);
          }
        } catch(_) {}
      };
      ws.onclose = () => setTimeout(connect, 1000);
    }
    connect();
  </script>
</body>
</html>`))
